// Package storage provides the content stores metadata documents live in:
// an S3-compatible object store for deployments and an in-memory IPFS-style
// stub for development and tests.
package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"tarledger/internal/domain"

	"go.uber.org/zap"
)

const s3Service = "s3"

// S3Store talks to an S3-compatible endpoint with SigV4-signed requests.
// Object URIs are path-style: <endpoint>/<bucket>/<key>.
type S3Store struct {
	endpoint   string
	bucket     string
	region     string
	accessKey  string
	secretKey  string
	httpClient *http.Client
	clock      func() time.Time
	log        *zap.Logger
}

func NewS3Store(endpoint, bucket, region, accessKey, secretKey string, log *zap.Logger) (*S3Store, error) {
	if endpoint == "" || bucket == "" || region == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("s3 store requires endpoint, bucket, region and credentials")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Store{
		endpoint:   strings.TrimRight(endpoint, "/"),
		bucket:     bucket,
		region:     region,
		accessKey:  accessKey,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		clock:      time.Now,
		log:        log,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	objectURL := s.objectURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, objectURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrContentStore, err)
	}
	req.Header.Set("Content-Type", contentType)

	if err := s.sign(req, data); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrContentStore, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", domain.ErrContentStore, key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: put %s: status %d", domain.ErrContentStore, key, resp.StatusCode)
	}
	s.log.Info("object stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return objectURL, nil
}

func (s *S3Store) Get(ctx context.Context, uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, s.endpoint+"/") {
		return nil, fmt.Errorf("%w: uri %q not served by this store", domain.ErrContentStore, uri)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentStore, err)
	}
	if err := s.sign(req, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentStore, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrContentStore, uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get %s: status %d", domain.ErrContentStore, uri, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentStore, err)
	}
	return body, nil
}

func (s *S3Store) objectURL(key string) string {
	return s.endpoint + "/" + s.bucket + "/" + key
}

func (s *S3Store) sign(req *http.Request, payload []byte) error {
	parsed, err := url.Parse(req.URL.String())
	if err != nil {
		return err
	}
	if parsed.Host == "" {
		return errors.New("host missing from request url")
	}
	req.Header.Set("Host", parsed.Host)

	now := s.clock().UTC()
	amzDate := now.Format("20060102T150405Z")
	date := amzDate[:8]
	payloadHash := sha256Hex(payload)
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	canonicalHeaders, signedHeaders := canonicalizeHeaders(req.Header)
	canonicalRequest := strings.Join([]string{
		req.Method,
		parsed.EscapedPath(),
		parsed.RawQuery,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := date + "/" + s.region + "/" + s3Service + "/aws4_request"
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signature := hmacHex(deriveSigningKey(s.secretKey, date, s.region, s3Service), []byte(stringToSign))
	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.accessKey, scope, signedHeaders, signature,
	))
	return nil
}

func canonicalizeHeaders(headers http.Header) (string, string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, strings.ToLower(k))
	}
	sort.Strings(keys)
	var canonical strings.Builder
	for _, key := range keys {
		values := headers.Values(key)
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		canonical.WriteString(key)
		canonical.WriteString(":")
		canonical.WriteString(strings.Join(values, ","))
		canonical.WriteString("\n")
	}
	return canonical.String(), strings.Join(keys, ";")
}

func deriveSigningKey(secret, date, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func hmacHex(key, data []byte) string {
	return hex.EncodeToString(hmacSHA256(key, data))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
