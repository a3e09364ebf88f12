package fingerprint_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/rise-and-shine/quote3d/internal/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Deterministic(t *testing.T) {
	content := []byte("solid cube\nfacet normal 0 0 1\nendsolid cube\n")

	fp1, n1, err := fingerprint.Compute(bytes.NewReader(content))
	require.NoError(t, err)

	fp2, n2, err := fingerprint.Compute(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Equal(t, int64(len(content)), n1)
	assert.Equal(t, n1, n2)
}

func TestCompute_DistinctContent(t *testing.T) {
	corpus := []string{
		"",
		"a",
		"b",
		"solid part",
		"solid part ", // trailing space matters
		"Solid part",
	}

	seen := make(map[fingerprint.Fingerprint]string)
	for _, content := range corpus {
		fp, _, err := fingerprint.Compute(strings.NewReader(content))
		require.NoError(t, err)

		prev, dup := seen[fp]
		require.False(t, dup, "collision between %q and %q", prev, content)
		seen[fp] = content
	}
}

func TestCompute_FilenameIndependent(t *testing.T) {
	// The fingerprint depends on bytes alone; there is no filename input
	// at all. Identical bytes from different "files" must match.
	fp1 := fingerprint.FromBytes([]byte("same content"))
	fp2 := fingerprint.FromBytes([]byte("same content"))
	assert.Equal(t, fp1, fp2)
}

func TestCompute_HexShape(t *testing.T) {
	fp, _, err := fingerprint.Compute(strings.NewReader("anything"))
	require.NoError(t, err)

	assert.Len(t, fp.String(), 64)
	assert.Equal(t, strings.ToLower(fp.String()), fp.String())
}

func TestCompute_ReadErrorPropagated(t *testing.T) {
	readErr := errors.New("disk gone")

	_, _, err := fingerprint.Compute(iotest.ErrReader(readErr))
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk gone")
}

func TestFromBytes_MatchesCompute(t *testing.T) {
	content := []byte{0x00, 0xff, 0x10, 0x20}

	fromBytes := fingerprint.FromBytes(content)
	streamed, _, err := fingerprint.Compute(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, fromBytes, streamed)
}
