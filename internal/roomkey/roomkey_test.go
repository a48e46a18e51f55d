package roomkey

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	key, err := New()
	require.NoError(t, err)
	assert.Len(t, key, Length)
	assert.NoError(t, Validate(key))
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := New()
		require.NoError(t, err)
		require.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestKeysSortByTime(t *testing.T) {
	var keys []string
	for i := 0; i < 5; i++ {
		key, err := New()
		require.NoError(t, err)
		keys = append(keys, key)
		time.Sleep(2 * time.Millisecond)
	}
	for i := 1; i < len(keys); i++ {
		assert.Negative(t, strings.Compare(keys[i-1], keys[i]), "%s !< %s", keys[i-1], keys[i])
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	gen := NewGenerator(bytes.NewReader(bytes.Repeat([]byte{0xab}, 64)))
	key, err := gen.New()
	require.NoError(t, err)

	id, err := Parse(key)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, key, Encode(id))
}

func TestEncodeKnownValues(t *testing.T) {
	assert.Equal(t, strings.Repeat("0", Length), Encode(uuid.Nil))
	assert.Equal(t, "7"+strings.Repeat("z", Length-1), Encode(uuid.Max))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", "01h455vb4pex5vsknk084sn02q", false},
		{"too short", "01h455vb4pex5vsknk084sn02", true},
		{"too long", "01h455vb4pex5vsknk084sn02qq", true},
		{"first char too high", "81h455vb4pex5vsknk084sn02q", true},
		{"excluded letter", "01h455vb4pex5vsknk084sn0iq", true},
		{"uppercase", "01H455VB4PEX5VSKNK084SN02Q", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
