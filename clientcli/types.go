package clientcli

import "github.com/sagarc03/volstore"

// AllocateOptions configures a volume allocation.
type AllocateOptions struct {
	Name     string
	Tags     []string
	Metadata map[string]string
}

// SearchOptions configures a volume search. An empty OwnerKey searches the
// volumes of the configured user.
type SearchOptions struct {
	OwnerKey string
	Name     string
	Tag      string
	Page     int
	Length   int
}

// VolumeList is one page of volumes.
type VolumeList struct {
	Items []volstore.VolumeHandle `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
}

// MkdirOptions configures a directory creation.
type MkdirOptions struct {
	Volume string
	Path   string
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	Volume     string
	LocalPath  string
	RemotePath string
	Recursive  bool
	// OnUpload, when set, is called after each uploaded file.
	OnUpload func(UploadResult)
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
	VolumeID   string `json:"volume_id"`
	Size       int64  `json:"size_bytes"`
	MimeType   string `json:"mime_type,omitempty"`
	Err        error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Volume     string
	RemotePath string
	LocalPath  string // empty = derive from remote, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	VolumeID   string `json:"volume_id"`
	RemotePath string `json:"remote_path"`
	LocalPath  string `json:"local_path"`
	Size       int64  `json:"size_bytes"`
}

// ListOptions configures a list operation.
type ListOptions struct {
	Volume string
	Path   string // empty = volume root
}

// ListResult contains the entries of one volume directory.
type ListResult struct {
	VolumeID string           `json:"volume_id"`
	Path     string           `json:"path"`
	Items    []volstore.Entry `json:"items"`
}

// TotalSize calculates the total size of all items in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Size
	}
	return total
}
