package clientcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sagarc03/volstore"
)

// Formatter formats results for output.
type Formatter interface {
	FormatToken(w io.Writer, token volstore.Token) error
	FormatVolume(w io.Writer, volume volstore.VolumeHandle) error
	FormatVolumeList(w io.Writer, list *VolumeList) error
	FormatDirectory(w io.Writer, entry volstore.Entry) error
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatToken prints the bare token so it can be captured by a shell.
func (f *HumanFormatter) FormatToken(w io.Writer, token volstore.Token) error {
	_, _ = fmt.Fprintln(w, string(token))
	return nil
}

// FormatVolume formats a volume handle as human-readable text.
func (f *HumanFormatter) FormatVolume(w io.Writer, volume volstore.VolumeHandle) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, volume.ID)
		return nil
	}
	_, _ = fmt.Fprintf(w, "ID:         %s\n", volume.ID)
	_, _ = fmt.Fprintf(w, "Name:       %s\n", volume.Name)
	_, _ = fmt.Fprintf(w, "Owner:      %s\n", volume.OwnerKey)
	_, _ = fmt.Fprintf(w, "Connection: %s\n", volume.BaseURL)
	if volume.Format != "" {
		_, _ = fmt.Fprintf(w, "Format:     %s\n", volume.Format)
	}
	if len(volume.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "Tags:       %s\n", strings.Join(volume.Tags, ", "))
	}
	return nil
}

// FormatVolumeList formats a page of volumes as a table.
func (f *HumanFormatter) FormatVolumeList(w io.Writer, list *VolumeList) error {
	if len(list.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No volumes found")
		return nil
	}

	maxIDLen, maxNameLen := 2, 4 // "ID", "NAME"
	for i := range list.Items {
		maxIDLen = max(maxIDLen, len(list.Items[i].ID))
		maxNameLen = min(max(maxNameLen, len(list.Items[i].Name)), 40)
	}

	_, _ = fmt.Fprintf(w, "%-*s  %-*s  %s\n", maxIDLen, "ID", maxNameLen, "NAME", "CONNECTION")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxIDLen), strings.Repeat("-", maxNameLen), strings.Repeat("-", 10))
	for i := range list.Items {
		v := &list.Items[i]
		name := v.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-*s  %-*s  %s\n", maxIDLen, v.ID, maxNameLen, name, v.BaseURL)
	}

	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "\n%d of %d volume(s), page %d\n", len(list.Items), list.Total, list.Page)
	}
	return nil
}

// FormatDirectory formats a created directory as human-readable text.
func (f *HumanFormatter) FormatDirectory(w io.Writer, entry volstore.Entry) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Created: %s\n", entry.Path)
	}
	return nil
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", r.RemotePath, formatSize(r.Size))
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s\n", result.RemotePath)
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.RemotePath, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No entries found")
		return nil
	}

	maxNameLen := 4 // "NAME"
	for i := range result.Items {
		maxNameLen = max(maxNameLen, len(displayName(result.Items[i])))
	}
	maxNameLen = min(maxNameLen, 60)

	_, _ = fmt.Fprintf(w, "%-*s  %-4s  %10s  %s\n", maxNameLen, "NAME", "TYPE", "SIZE", "MIME TYPE")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 4), strings.Repeat("-", 10), strings.Repeat("-", 9))

	for i := range result.Items {
		item := result.Items[i]
		name := displayName(item)
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		kind, size := "file", formatSize(item.Size)
		if item.Directory {
			kind, size = "dir", "-"
		}
		_, _ = fmt.Fprintf(w, "%-*s  %-4s  %10s  %s\n", maxNameLen, name, kind, size, item.MimeType)
	}

	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "\n%d entry(ies) (%s total)\n", len(result.Items), formatSize(result.TotalSize()))
	}
	return nil
}

func displayName(e volstore.Entry) string {
	if e.Directory {
		return e.Name() + "/"
	}
	return e.Name()
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatToken formats a token as JSON.
func (f *JSONFormatter) FormatToken(w io.Writer, token volstore.Token) error {
	return writeJSON(w, struct {
		Token string `json:"token"`
	}{Token: string(token)})
}

// FormatVolume formats a volume handle as JSON.
func (f *JSONFormatter) FormatVolume(w io.Writer, volume volstore.VolumeHandle) error {
	return writeJSON(w, volume)
}

// FormatVolumeList formats a page of volumes as JSON.
func (f *JSONFormatter) FormatVolumeList(w io.Writer, list *VolumeList) error {
	if list.Items == nil {
		list.Items = []volstore.VolumeHandle{}
	}
	return writeJSON(w, list)
}

// FormatDirectory formats a created directory as JSON.
func (f *JSONFormatter) FormatDirectory(w io.Writer, entry volstore.Entry) error {
	return writeJSON(w, entry)
}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		LocalPath  string `json:"local_path"`
		RemotePath string `json:"remote_path,omitempty"`
		VolumeID   string `json:"volume_id,omitempty"`
		Size       int64  `json:"size_bytes"`
		MimeType   string `json:"mime_type,omitempty"`
		Error      string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath:  r.LocalPath,
			RemotePath: r.RemotePath,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.VolumeID = r.VolumeID
			jr.Size = r.Size
			jr.MimeType = r.MimeType
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	if result.Items == nil {
		result.Items = []volstore.Entry{}
	}
	return writeJSON(w, result)
}

// FormatError formats an error as JSON. Remote failures include the status
// code, the failing path and the response body.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error  string `json:"error"`
		Path   string `json:"path,omitempty"`
		Status int    `json:"status,omitempty"`
		Body   string `json:"body,omitempty"`
	}{
		Error: err.Error(),
	}

	var remote *volstore.RemoteError
	if errors.As(err, &remote) {
		output.Path = remote.Path
		output.Status = remote.StatusCode
		output.Body = remote.Body
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4    // "NAME"
	maxMasterLen := 10 // "MASTER URL"
	for i := range profiles {
		maxNameLen = max(maxNameLen, len(profiles[i].Name))
		maxMasterLen = max(maxMasterLen, len(profiles[i].MasterURL))
	}
	maxNameLen = min(maxNameLen, 20)
	maxMasterLen = min(maxMasterLen, 50)

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxMasterLen, "MASTER URL", "USERNAME")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxMasterLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		master := p.MasterURL
		if len(master) > maxMasterLen {
			master = master[:maxMasterLen-3] + "..."
		}

		username := p.Username
		if username == "" {
			username = "(not set)"
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxMasterLen, master, username)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:       %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Auth URL:   %s\n", profile.AuthURL)
	_, _ = fmt.Fprintf(w, "Master URL: %s\n", profile.MasterURL)
	_, _ = fmt.Fprintf(w, "Username:   %s\n", profile.Username)
	_, _ = fmt.Fprintf(w, "Password:   %s\n", maskSecret(profile.Password, showSecrets))
	_, _ = fmt.Fprintf(w, "Token:      %s\n", maskSecret(profile.Token, showSecrets))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = newJSONProfile(profiles[i], profiles[i].Name == defaultName, showSecrets)
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, newJSONProfile(profile, isDefault, showSecrets))
}

type jsonProfile struct {
	Name      string `json:"name"`
	AuthURL   string `json:"auth_url"`
	MasterURL string `json:"master_url"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password"`
	Token     string `json:"token"`
	Default   bool   `json:"default"`
}

func newJSONProfile(p Profile, isDefault, showSecrets bool) jsonProfile {
	return jsonProfile{
		Name:      p.Name,
		AuthURL:   p.AuthURL,
		MasterURL: p.MasterURL,
		Username:  p.Username,
		Password:  maskSecret(p.Password, showSecrets),
		Token:     maskSecret(p.Token, showSecrets),
		Default:   isDefault,
	}
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
