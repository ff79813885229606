package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
)

func baseExisting() *kontent.Asset {
	return &kontent.Asset{
		ID:       "a1",
		Codename: "hero",
		FileName: "hero.png",
		Title:    "Hero",
		Size:     100,
	}
}

func baseIncoming() migrate.Asset {
	return migrate.Asset{
		Codename: "hero",
		Filename: "hero.png",
		Title:    "Hero",
		Size:     100,
	}
}

func TestShouldUpdateAsset(t *testing.T) {
	collections := map[string]string{"c1": "default"}

	tests := []struct {
		name     string
		existing func(*kontent.Asset)
		incoming func(*migrate.Asset)
		want     bool
	}{
		{
			name: "identical skips",
			want: false,
		},
		{
			name:     "title differs",
			incoming: func(a *migrate.Asset) { a.Title = "New hero" },
			want:     true,
		},
		{
			name:     "size differs",
			incoming: func(a *migrate.Asset) { a.Size = 200 },
			want:     true,
		},
		{
			name:     "filename differs",
			incoming: func(a *migrate.Asset) { a.Filename = "hero2.png" },
			want:     true,
		},
		{
			name:     "collection added",
			incoming: func(a *migrate.Asset) { a.Collection = &migrate.Reference{Codename: "default"} },
			want:     true,
		},
		{
			name:     "collection matches via id lookup",
			existing: func(a *kontent.Asset) { a.Collection = &kontent.ObjectReference{ID: "c1"} },
			incoming: func(a *migrate.Asset) { a.Collection = &migrate.Reference{Codename: "default"} },
			want:     false,
		},
		{
			name: "description differs",
			existing: func(a *kontent.Asset) {
				a.Descriptions = []kontent.AssetDescription{
					{Language: kontent.ObjectReference{Codename: "en"}, Description: "old"},
				}
			},
			incoming: func(a *migrate.Asset) {
				a.Descriptions = []migrate.AssetDescription{
					{Language: migrate.Reference{Codename: "en"}, Description: "new"},
				}
			},
			want: true,
		},
		{
			name: "descriptions match",
			existing: func(a *kontent.Asset) {
				a.Descriptions = []kontent.AssetDescription{
					{Language: kontent.ObjectReference{Codename: "en"}, Description: "same"},
				}
			},
			incoming: func(a *migrate.Asset) {
				a.Descriptions = []migrate.AssetDescription{
					{Language: migrate.Reference{Codename: "en"}, Description: "same"},
				}
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := baseExisting()
			incoming := baseIncoming()
			if tt.existing != nil {
				tt.existing(existing)
			}
			if tt.incoming != nil {
				tt.incoming(&incoming)
			}
			assert.Equal(t, tt.want, ShouldUpdateAsset(existing, incoming, collections))
		})
	}
}

func TestShouldReplaceBinaryFile(t *testing.T) {
	tests := []struct {
		name     string
		existing func(*kontent.Asset)
		incoming func(*migrate.Asset)
		want     bool
	}{
		{
			name: "same size and filename keeps binary",
			incoming: func(a *migrate.Asset) {
				a.Binary = []byte{1}
			},
			want: false,
		},
		{
			name: "size differs with binary replaces",
			incoming: func(a *migrate.Asset) {
				a.Binary = []byte{1}
				a.Size = 200
			},
			want: true,
		},
		{
			name: "filename differs with binary replaces",
			incoming: func(a *migrate.Asset) {
				a.Binary = []byte{1}
				a.Filename = "hero2.png"
			},
			want: true,
		},
		{
			// A metadata-only archive cannot re-upload what it does not carry.
			name: "size differs without binary keeps",
			incoming: func(a *migrate.Asset) {
				a.Size = 200
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := baseExisting()
			incoming := baseIncoming()
			if tt.existing != nil {
				tt.existing(existing)
			}
			if tt.incoming != nil {
				tt.incoming(&incoming)
			}
			assert.Equal(t, tt.want, ShouldReplaceBinaryFile(existing, incoming))
		})
	}
}

// A title change alone updates metadata without touching the binary.
func TestMetadataUpdateIndependentOfBinaryReplace(t *testing.T) {
	existing := baseExisting()
	incoming := baseIncoming()
	incoming.Title = "Renamed"
	incoming.Binary = []byte{1}

	assert.True(t, ShouldUpdateAsset(existing, incoming, nil))
	assert.False(t, ShouldReplaceBinaryFile(existing, incoming))
}
