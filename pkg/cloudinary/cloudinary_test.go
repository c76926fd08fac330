package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPublicID(t *testing.T) {
	at := time.Unix(1700000000, 0)

	cases := map[string]string{
		"Class 8 roster.xlsx":     "Class-8-roster-1700000000.xlsx",
		"???":                     "roster-1700000000.xlsx",
		"../students":             "students-1700000000.xlsx",
		"uploads/Coord List.XLSX": "Coord-List-1700000000.xlsx",
		"छात्र.xlsx":              "roster-1700000000.xlsx",
	}
	for name, want := range cases {
		require.Equal(t, want, PublicID(name, at), name)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.ErrorIs(t, err, ErrMissingCredentials)

	archive, err := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "/olympiad/"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "olympiad", archive.root)
}
