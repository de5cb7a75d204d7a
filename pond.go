// Package pond stores versioned, immutable research artifacts with
// embedded lineage over pluggable storage backends.
//
// The entry point is an Activity, one per script or pipeline step:
//
//	store, _ := file.New("local", "/data/pond")
//	activity := pond.NewActivity("train.go", "experiments/mnist", store,
//		pond.WithAuthor("ada"))
//
//	params, _ := activity.Read(ctx, "params")
//	v, _ := activity.Write(ctx, "metrics", artifact.Document{"acc": 0.92})
//	fmt.Println(v.URI) // pond://local/experiments/mnist/metrics/v1
//
// Every written version carries a manifest with a lineage section: the
// source and author, a UTC timestamp, the VCS commit when available, and
// the URIs of everything the Activity read before the write. Versions are
// never mutated after creation; write modes (ErrorIfExists,
// WriteOnChange, Overwrite) only decide how a new write resolves against
// the versions that already exist.
package pond
