package oss

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ipl_server/config"
)

func testConfig() *config.OSSConfig {
	return &config.OSSConfig{
		Endpoint:        "oss-ap-southeast-5.aliyuncs.com",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		BucketName:      "ipl-archive",
	}
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "fee-snapshots/2025-03/abc.json", SnapshotKey("2025-03", "abc"))
}

func TestClient_ObjectURL(t *testing.T) {
	t.Run("bucket domain", func(t *testing.T) {
		c, err := NewClient(testConfig())
		require.NoError(t, err)

		url := c.objectURL(SnapshotKey("2025-03", "abc"))
		assert.True(t, strings.HasPrefix(url, "https://ipl-archive."))
		assert.True(t, strings.HasSuffix(url, "/fee-snapshots/2025-03/abc.json"))
	})

	t.Run("cdn domain", func(t *testing.T) {
		cfg := testConfig()
		cfg.CDNDomain = "cdn.example.com"

		c, err := NewClient(cfg)
		require.NoError(t, err)

		assert.Equal(t, "https://cdn.example.com/fee-snapshots/2025-03/abc.json", c.objectURL(SnapshotKey("2025-03", "abc")))
	})
}

func TestClient_SignedSnapshotURL(t *testing.T) {
	c, err := NewClient(testConfig())
	require.NoError(t, err)

	// 签名在本地计算，不访问网络
	url, err := c.SignedSnapshotURL("2025-03", "abc", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "fee-snapshots/2025-03/abc.json")
	assert.Contains(t, url, "Signature=")
}
