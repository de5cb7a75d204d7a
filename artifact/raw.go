package artifact

import (
	"fmt"

	"github.com/datrocity/pond/metadata"
)

// Raw stores a byte slice verbatim: images, pickled models, anything the
// other formats do not cover. No manifest embedding.
type Raw struct{}

func (Raw) Name() string         { return "raw" }
func (Raw) Extension() string    { return "bin" }
func (Raw) EmbedsManifest() bool { return false }

func (Raw) Serialize(data any, _ *metadata.Manifest) ([]byte, error) {
	b, ok := data.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: want []byte, got %T", ErrIncompatibleData, data)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (Raw) Deserialize(payload []byte) (any, *metadata.Manifest, error) {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil, nil
}

var _ Format = Raw{}
