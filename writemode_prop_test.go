package pond

import (
	"context"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/datrocity/pond/artifact"
	"github.com/datrocity/pond/storage/memory"
)

// writeStep is one randomized write against the artifact. The payload
// alphabet is tiny on purpose, so WriteOnChange dedup actually triggers.
type writeStep struct {
	Mode    int // 0 ErrorIfExists, 1 WriteOnChange, 2 Overwrite
	Payload int // 0..2
}

func (s writeStep) mode() WriteMode {
	return [...]WriteMode{ErrorIfExists, WriteOnChange, Overwrite}[s.Mode]
}

// applyModel advances the reference model: the ordered contents of the
// artifact's versions.
func applyModel(contents []int, s writeStep) []int {
	switch s.mode() {
	case WriteOnChange:
		if len(contents) > 0 && contents[len(contents)-1] == s.Payload {
			return contents
		}
		return append(contents, s.Payload)
	case Overwrite:
		if len(contents) == 0 {
			return []int{s.Payload}
		}
		out := append([]int(nil), contents...)
		out[len(out)-1] = s.Payload
		return out
	default:
		return append(contents, s.Payload)
	}
}

// TestWriteModeStateMachine runs random write sequences against a real
// datastore and checks every surviving version against the model.
func TestWriteModeStateMachine(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60

	genStep := gen.Struct(reflect.TypeOf(writeStep{}), map[string]gopter.Gen{
		"Mode":    gen.IntRange(0, 2),
		"Payload": gen.IntRange(0, 2),
	})

	properties := gopter.NewProperties(parameters)
	properties.Property("versions match the write-mode model", prop.ForAll(
		func(steps []writeStep) bool {
			ctx := context.Background()
			a := NewActivity("prop.go", "lab", memory.New("mem"),
				WithCommitProvider(func() (string, error) { return "", nil }))

			var model []int
			for _, s := range steps {
				model = applyModel(model, s)
				_, err := a.Write(ctx, "artifact",
					artifact.Document{"payload": float64(s.Payload)},
					WithWriteMode(s.mode()))
				if err != nil {
					return false
				}
			}

			names, err := a.Versions(ctx, "artifact")
			if err != nil || len(names) != len(model) {
				return false
			}
			for i, want := range model {
				v, err := a.ReadVersion(ctx, "artifact", names[i])
				if err != nil {
					return false
				}
				got, ok := v.Data.(artifact.Document)
				if !ok || got["payload"] != float64(want) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genStep),
	))
	properties.TestingRun(t)
}
