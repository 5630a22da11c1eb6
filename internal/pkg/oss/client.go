package oss

import (
	"bytes"
	"fmt"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/ipl_server/config"
)

const snapshotPrefix = "fee-snapshots"

// Client 账单快照归档到阿里云 OSS，快照为私有对象
type Client struct {
	bucket   *oss.Bucket
	endpoint string
	name     string
	cdn      string
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{
		bucket:   bucket,
		endpoint: client.Config.Endpoint,
		name:     cfg.BucketName,
		cdn:      cfg.CDNDomain,
	}, nil
}

// SnapshotKey 重新生成前账单快照的 object key
func SnapshotKey(month, auditID string) string {
	return fmt.Sprintf("%s/%s/%s.json", snapshotPrefix, month, auditID)
}

// ArchiveSnapshot 上传被作废账单的 JSON 快照，返回对象地址
func (c *Client) ArchiveSnapshot(month, auditID string, data []byte) (string, error) {
	key := SnapshotKey(month, auditID)
	err := c.bucket.PutObject(key, bytes.NewReader(data),
		oss.ContentType("application/json"),
		oss.ObjectACL(oss.ACLPrivate),
		oss.Meta("month", month),
		oss.Meta("audit-id", auditID),
	)
	if err != nil {
		return "", fmt.Errorf("failed to archive snapshot %s: %w", key, err)
	}
	return c.objectURL(key), nil
}

// SignedSnapshotURL 快照的临时下载地址
func (c *Client) SignedSnapshotURL(month, auditID string, expireSeconds int64) (string, error) {
	if expireSeconds <= 0 {
		expireSeconds = 3600
	}
	url, err := c.bucket.SignURL(SnapshotKey(month, auditID), oss.HTTPGet, expireSeconds)
	if err != nil {
		return "", fmt.Errorf("failed to sign snapshot url: %w", err)
	}
	return url, nil
}

func (c *Client) objectURL(key string) string {
	if c.cdn != "" {
		return fmt.Sprintf("https://%s/%s", c.cdn, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", c.name, c.endpoint, key)
}
