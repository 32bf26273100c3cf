package provision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sagarc03/volstore"
)

// volumeID accepts both string and numeric ids.
type volumeID string

func (v *volumeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = volumeID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("volume id: %w", err)
		}
		*v = volumeID(n.String())
		return nil
	}
}

type volumeResponse struct {
	ID            volumeID               `json:"id"`
	ConnectionURL string                 `json:"connectionURL"`
	OwnerKey      string                 `json:"ownerKey"`
	Name          string                 `json:"name"`
	StorageFormat volstore.StorageFormat `json:"storageFormat"`
	StorageTags   []string               `json:"storageTags"`
}

var errIncompleteVolume = errors.New("response has no id or connectionURL")

func (r volumeResponse) handle() (volstore.VolumeHandle, error) {
	h := volstore.VolumeHandle{
		ID:       string(r.ID),
		BaseURL:  r.ConnectionURL,
		OwnerKey: r.OwnerKey,
		Name:     r.Name,
		Format:   r.StorageFormat,
		Tags:     r.StorageTags,
	}
	if h.ID == "" || h.BaseURL == "" {
		return volstore.VolumeHandle{}, errIncompleteVolume
	}
	return h, nil
}
