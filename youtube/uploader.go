package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"newsshorts/config"
	"newsshorts/logger"
	"newsshorts/retry"
)

// Uploader publishes finished videos to a YouTube channel.
type Uploader struct {
	service   *yt.Service
	chunkSize int
	policy    retry.Policy
	log       logrus.FieldLogger
}

// NewUploader authenticates with an installed-app token (YOUTUBE_TOKEN_JSON
// plus client id and secret) or, failing that, a service account file.
func NewUploader(ctx context.Context, cfg config.YouTubeConfig, policy retry.Policy, log logrus.FieldLogger) (*Uploader, error) {
	client, err := httpClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	service, err := yt.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}
	return NewUploaderWithService(service, cfg.ChunkSize, policy, log), nil
}

// NewUploaderWithService wraps an already configured service.
func NewUploaderWithService(service *yt.Service, chunkSize int, policy retry.Policy, log logrus.FieldLogger) *Uploader {
	if chunkSize <= 0 {
		chunkSize = googleapi.DefaultUploadChunkSize
	}
	return &Uploader{
		service:   service,
		chunkSize: chunkSize,
		policy:    policy,
		log:       logger.OrDiscard(log),
	}
}

func httpClient(ctx context.Context, cfg config.YouTubeConfig) (*http.Client, error) {
	if cfg.TokenJSON != "" {
		token, err := loadToken(cfg.TokenJSON)
		if err != nil {
			return nil, err
		}
		clientID, clientSecret := cfg.ClientID, cfg.ClientSecret
		if clientID == "" {
			clientID = token.ClientID
		}
		if clientSecret == "" {
			clientSecret = token.ClientSecret
		}
		oauthCfg := &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{yt.YoutubeUploadScope},
		}
		return oauthCfg.Client(ctx, token.OAuth2()), nil
	}

	if cfg.ServiceAccountFile != "" {
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account file: %w", err)
		}
		jwtCfg, err := google.JWTConfigFromJSON(data, yt.YoutubeUploadScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account: %w", err)
		}
		return jwtCfg.Client(ctx), nil
	}

	return nil, errors.New("youtube: no credentials configured")
}

// Upload sends the file with a resumable, chunked upload and returns the
// new video ID. The file is reopened on every attempt.
func (u *Uploader) Upload(ctx context.Context, path string, meta Metadata) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat video file: %w", err)
	}
	log := u.log.WithFields(logrus.Fields{"file": path, "title": meta.Title})
	log.Infof("📤 Uploading (%.2f MB)", float64(info.Size())/(1024*1024))

	return retry.Do(ctx, u.policy, "youtube upload", func(ctx context.Context) (string, error) {
		return u.upload(ctx, path, meta, info.Size(), log)
	})
}

func (u *Uploader) upload(ctx context.Context, path string, meta Metadata, size int64, log logrus.FieldLogger) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to open video file: %w", err))
	}
	defer file.Close()

	lastPct := -1
	call := u.service.Videos.Insert([]string{"snippet", "status"}, meta.video()).
		Media(file, googleapi.ChunkSize(u.chunkSize)).
		ProgressUpdater(func(current, total int64) {
			if total <= 0 {
				total = size
			}
			if total <= 0 {
				return
			}
			if pct := int(current * 100 / total); pct/10 != lastPct/10 {
				lastPct = pct
				log.Infof("Upload %d%%", pct)
			}
		}).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		if isPermanent(err) {
			return "", retry.Permanent(fmt.Errorf("failed to upload video: %w", err))
		}
		return "", fmt.Errorf("failed to upload video: %w", err)
	}

	log.Infof("✅ Uploaded! https://youtube.com/shorts/%s", resp.Id)
	return resp.Id, nil
}

// isPermanent reports API errors that a retry cannot fix.
func isPermanent(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
