package logistics

import (
	"context"
	"encoding/json"
	"os"

	"opticost/core/types"
	"opticost/internal/errors"
)

// FileProvider serves a logistics snapshot saved as JSON, for offline quoting
type FileProvider struct {
	Path string
}

// NewFileProvider creates a provider for the snapshot at path
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// Lookup implements Provider. The address is ignored: the snapshot was taken for the job.
func (p *FileProvider) Lookup(_ context.Context, _ Request) (types.LogisticsData, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.UnfetchedLogistics(), errors.NotFound("logistics snapshot", p.Path)
		}
		return types.UnfetchedLogistics(), errors.Wrapf(errors.TypeInput, err, "failed to read %s", p.Path)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.UnfetchedLogistics(), errors.Parsing("invalid logistics snapshot "+p.Path, err)
	}
	return rec.Normalize(), nil
}
