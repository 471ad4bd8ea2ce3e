package api

// Manifest lists the procedural assets a host should materialize.
// It is loaded from JSON or HCL by internal/manifest.
type Manifest struct {
	// Version of the manifest schema.
	Version string `json:"version"`
	// Assets in declaration order.
	Assets []Asset `json:"assets"`
}

// Asset is a single reference the host resolves through the format registry.
type Asset struct {
	// Name is unique within the manifest and used for file and row names.
	Name string `json:"name"`
	// Path is the asset path; its extension selects the file format.
	Path string `json:"path"`
	// Context is the stack of composition opinions in effect where the
	// asset is referenced, strongest first.
	Context []map[string]any `json:"context,omitempty"`
	// Arguments are explicit file format arguments embedded in the identifier
	// instead of being derived from context.
	Arguments map[string]string `json:"arguments,omitempty"`
}

// CurrentVersion is the manifest version written by this tool.
const CurrentVersion = "1"
