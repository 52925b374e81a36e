package clustering

import "fmt"

// Reduction methods accepted by Params.
const (
	ReductionPCA  = "pca"
	ReductionNone = "none"
)

// Params controls reduction and partitioning. Zero values are filled in by
// DefaultParams, so callers normally start from ParamsFromMap.
type Params struct {
	// ReductionMethod selects the dimensionality reduction applied before
	// partitioning: ReductionPCA or ReductionNone.
	ReductionMethod string

	// NComponents is the dimensionality of the reduced matrix handed to the
	// partitioner. It is clamped to the input dimensionality at run time.
	NComponents int

	// NClusters is the requested number of clusters. It is clamped to the
	// number of input rows at run time.
	NClusters int

	// MinClusterSize relabels clusters with fewer members as noise (-1).
	MinClusterSize int
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		ReductionMethod: ReductionPCA,
		NComponents:     5,
		NClusters:       15,
		MinClusterSize:  5,
	}
}

// ParamsFromMap overlays recognized keys from a job's params document onto
// the defaults. Numeric values arrive as float64 after JSON decoding, so
// integer fields accept any numeric type. Unknown keys are ignored.
func ParamsFromMap(overrides map[string]any) (Params, error) {
	params := DefaultParams()
	for key, value := range overrides {
		switch key {
		case "reduction_method":
			s, ok := value.(string)
			if !ok {
				return Params{}, fmt.Errorf("clustering param %s: expected string, got %T", key, value)
			}
			params.ReductionMethod = s
		case "n_components":
			n, err := asInt(key, value)
			if err != nil {
				return Params{}, err
			}
			params.NComponents = n
		case "n_clusters":
			n, err := asInt(key, value)
			if err != nil {
				return Params{}, err
			}
			params.NClusters = n
		case "min_cluster_size":
			n, err := asInt(key, value)
			if err != nil {
				return Params{}, err
			}
			params.MinClusterSize = n
		}
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// Validate reports the first invalid field.
func (p Params) Validate() error {
	switch p.ReductionMethod {
	case ReductionPCA, ReductionNone:
	default:
		return fmt.Errorf("clustering params: unknown reduction_method %q", p.ReductionMethod)
	}
	if p.NComponents < 2 {
		return fmt.Errorf("clustering params: n_components must be at least 2, got %d", p.NComponents)
	}
	if p.NClusters <= 0 {
		return fmt.Errorf("clustering params: n_clusters must be positive, got %d", p.NClusters)
	}
	if p.MinClusterSize < 0 {
		return fmt.Errorf("clustering params: min_cluster_size must not be negative, got %d", p.MinClusterSize)
	}
	return nil
}

func asInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("clustering param %s: expected number, got %T", key, value)
	}
}
