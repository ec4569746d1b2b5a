package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"newsshorts/logger"
	"newsshorts/types"
)

// VideoRecord is one rendered video of a run.
type VideoRecord struct {
	Kind     string  `json:"kind"` // "shorts" or "summary"
	Language string  `json:"language"`
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
	VideoID  string  `json:"video_id,omitempty"`
}

// Manifest records what a run selected, wrote and published.
type Manifest struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Fetched    int                 `json:"fetched"`
	Articles   []types.Article     `json:"articles"`
	Scripts    map[string][]string `json:"scripts"`
	Summary    string              `json:"summary,omitempty"`
	Videos     []VideoRecord       `json:"videos"`
}

// Archiver copies run artifacts to object storage under
// <prefix>/<YYYY-MM-DD>/<run id>/.
type Archiver struct {
	store  ObjectStore
	bucket string
	prefix string
	log    logrus.FieldLogger
}

func NewArchiver(store ObjectStore, bucket, prefix string, log logrus.FieldLogger) *Archiver {
	return &Archiver{
		store:  store,
		bucket: bucket,
		prefix: prefix,
		log:    logger.OrDiscard(log),
	}
}

// runKey builds the object key for name within the manifest's run folder.
func (a *Archiver) runKey(m *Manifest, name string) string {
	day := m.StartedAt.UTC().Format("2006-01-02")
	return path.Join(a.prefix, day, m.RunID, name)
}

// Archive uploads every rendered video and then the manifest. The manifest
// goes last so its presence means the run folder is complete.
func (a *Archiver) Archive(ctx context.Context, m *Manifest) error {
	for _, v := range m.Videos {
		if err := a.putFile(ctx, a.runKey(m, "videos/"+filepath.Base(v.Path)), v.Path, "video/mp4"); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	key := a.runKey(m, "manifest.json")
	if err := a.store.Put(ctx, a.bucket, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("archive manifest: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"bucket": a.bucket,
		"key":    key,
		"videos": len(m.Videos),
	}).Info("✓ Run archived")
	return nil
}

func (a *Archiver) putFile(ctx context.Context, key, file, contentType string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("archive %s: %w", file, err)
	}
	defer f.Close()

	if err := a.store.Put(ctx, a.bucket, key, f, contentType); err != nil {
		return fmt.Errorf("archive %s: %w", file, err)
	}
	return nil
}
