package volstore_test

import (
	"testing"

	"github.com/sagarc03/volstore"
	"github.com/stretchr/testify/assert"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name  string
		creds volstore.Credentials
		valid bool
	}{
		{name: "both set", creds: volstore.Credentials{Username: "alice", Password: "secret"}, valid: true},
		{name: "missing username", creds: volstore.Credentials{Password: "secret"}, valid: false},
		{name: "blank username", creds: volstore.Credentials{Username: "  ", Password: "secret"}, valid: false},
		{name: "missing password", creds: volstore.Credentials{Username: "alice"}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, volstore.ErrInvalidInput)
			}
		})
	}
}

func TestToken(t *testing.T) {
	assert.True(t, volstore.Token("").IsZero())
	assert.True(t, volstore.Token(" ").IsZero())
	assert.False(t, volstore.Token("abc").IsZero())
	assert.Equal(t, "Bearer abc", volstore.Token("abc").Header())
}

func TestOwnerKey(t *testing.T) {
	assert.Equal(t, "user:alice", volstore.OwnerKey("alice"))
}

func TestVolumeHandle_Validate(t *testing.T) {
	assert.NoError(t, volstore.VolumeHandle{ID: "v1", BaseURL: "http://x"}.Validate())
	assert.ErrorIs(t, volstore.VolumeHandle{BaseURL: "http://x"}.Validate(), volstore.ErrInvalidInput)
	assert.ErrorIs(t, volstore.VolumeHandle{ID: "v1"}.Validate(), volstore.ErrInvalidInput)
}

func TestVolume_Handle(t *testing.T) {
	v := volstore.Volume{ID: "v1", OwnerKey: "user:alice", Name: "scratch", Format: volstore.FormatDataDirectory}
	h := v.Handle("http://agent:8881/api")

	assert.Equal(t, "v1", h.ID)
	assert.Equal(t, "http://agent:8881/api", h.BaseURL)
	assert.Equal(t, "user:alice", h.OwnerKey)
	assert.Equal(t, "scratch", h.Name)
}

func TestEntry(t *testing.T) {
	file := volstore.Entry{Path: "a/b/c.dat", Size: 4}
	assert.Equal(t, "c.dat", file.Name())
	assert.Equal(t, volstore.EntryFile, file.Type())

	dir := volstore.Entry{Path: "a/b", Directory: true}
	assert.Equal(t, "b", dir.Name())
	assert.Equal(t, volstore.EntryDirectory, dir.Type())

	assert.Equal(t, "", volstore.Entry{}.Name())
}

func TestTables_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tables  volstore.Tables
		wantErr bool
	}{
		{name: "valid", tables: volstore.Tables{Volumes: "volstore_volumes"}},
		{name: "empty", tables: volstore.Tables{}, wantErr: true},
		{name: "uppercase", tables: volstore.Tables{Volumes: "Volumes"}, wantErr: true},
		{name: "sql injection", tables: volstore.Tables{Volumes: "v; DROP TABLE x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tables.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVolumeQuery_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         volstore.VolumeQuery
		wantPage   int
		wantLength int
		wantOffset int
	}{
		{name: "defaults", in: volstore.VolumeQuery{}, wantPage: 0, wantLength: 100, wantOffset: 0},
		{name: "negative page", in: volstore.VolumeQuery{Page: -3, Length: 10}, wantPage: 0, wantLength: 10, wantOffset: 0},
		{name: "capped length", in: volstore.VolumeQuery{Page: 2, Length: 5000}, wantPage: 2, wantLength: 1000, wantOffset: 2000},
		{name: "explicit", in: volstore.VolumeQuery{Page: 3, Length: 20, Name: "x"}, wantPage: 3, wantLength: 20, wantOffset: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLength, got.Length)
			assert.Equal(t, tt.in.Name, got.Name)
			assert.Equal(t, tt.wantOffset, tt.in.Offset())
		})
	}
}
