package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Hex(t *testing.T) {
	// well-known digest of "hello world"
	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	assert.Equal(t, want, SHA256Hex([]byte("hello world")))
}

func TestCheckVerified(t *testing.T) {
	data := []byte("test data")
	res := Check(data, SHA256Hex(data))
	assert.Equal(t, Verified, res.Outcome)
	assert.Equal(t, res.Expected, res.Actual)
}

func TestCheckMismatch(t *testing.T) {
	res := Check([]byte("test data"), "deadbeef")
	assert.Equal(t, Mismatch, res.Outcome)
	assert.Equal(t, "deadbeef", res.Expected)
	assert.NotEqual(t, res.Expected, res.Actual)
}

func TestCheckSkippedWhenNoDigest(t *testing.T) {
	res := Check([]byte("test data"), "")
	assert.Equal(t, SkippedNoDigestPublished, res.Outcome)
	assert.NotEmpty(t, res.Actual)
}

func TestCheckNormalizesExpected(t *testing.T) {
	data := []byte("abc")
	upper := "  BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD\n"
	res := Check(data, upper)
	assert.Equal(t, Verified, res.Outcome)
}
