package borg

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/strongholder/internal/common"
)

// Archive is one entry of `borg list --json`.
type Archive struct {
	Name string `json:"archive"`
	Time string `json:"time"`
}

// ArchiveFile is one line of `borg list --json-lines <archive>`.
type ArchiveFile struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	Mtime string `json:"mtime"`
	Size  int64  `json:"size"`
}

type archiveList struct {
	Archives []Archive `json:"archives"`
}

// ListArchives lists the archives in the repository of id. The repository
// key must already be in place.
func (c *Client) ListArchives(ctx context.Context, id string) ([]Archive, error) {
	out, err := c.sudo(ctx, scriptList, id)
	if err != nil {
		return nil, err
	}

	var list archiveList
	if err := json.Unmarshal([]byte(out.Stdout), &list); err != nil {
		return nil, fmt.Errorf("%w: archive list: %w", common.ErrJSON, err)
	}
	if list.Archives == nil {
		list.Archives = []Archive{}
	}
	return list.Archives, nil
}

// ListArchiveContent lists the files stored in archive.
func (c *Client) ListArchiveContent(ctx context.Context, id, archive string) ([]ArchiveFile, error) {
	if err := ValidateArchiveName(archive); err != nil {
		return nil, err
	}
	out, err := c.sudo(ctx, scriptList, id, archive)
	if err != nil {
		return nil, err
	}
	return parseContent(out.Stdout)
}

func parseContent(s string) ([]ArchiveFile, error) {
	files := []ArchiveFile{}
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var f ArchiveFile
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return nil, fmt.Errorf("%w: archive content: %w", common.ErrJSON, err)
		}
		files = append(files, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: archive content: %w", common.ErrJSON, err)
	}
	return files, nil
}

// Logs extracts the client log stored in every `_logs` archive of id and
// returns their contents in archive order. Extracted files are removed.
func (c *Client) Logs(ctx context.Context, id string) ([]string, error) {
	archives, err := c.ListArchives(ctx, id)
	if err != nil {
		return nil, err
	}

	logs := []string{}
	for _, a := range archives {
		if !strings.HasSuffix(a.Name, logArchiveSuffix) {
			continue
		}
		content, err := c.extractLog(ctx, id, a.Name)
		if err != nil {
			return nil, err
		}
		logs = append(logs, content)
	}
	return logs, nil
}

func (c *Client) extractLog(ctx context.Context, id, archive string) (string, error) {
	files, err := c.ListArchiveContent(ctx, id, archive)
	if err != nil {
		return "", err
	}

	want := archive + "_" + id + ".log"
	var logPath string
	for _, f := range files {
		if strings.Contains(f.Path, want) {
			logPath = f.Path
			break
		}
	}
	if logPath == "" {
		c.logger.Error(ctx, "log file not found in archive", "user_id", id, "archive", archive, "file", want)
		return "", fmt.Errorf("%w: %s not in %s", common.ErrScript, want, archive)
	}

	restored := c.layout.RestoredLog(id, archive)
	defer func() {
		cctx, cancel := c.cleanupContext(ctx)
		defer cancel()
		if err := c.ch.DeleteFile(cctx, restored); err != nil {
			c.logger.Warn(ctx, "failed to remove extracted log", "user_id", id, "archive", archive, "error", err)
		}
	}()

	if err := c.Restore(ctx, id, archive, logPath); err != nil {
		return "", err
	}

	data, err := c.ch.ReadFile(ctx, restored)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", common.ErrUtf8, restored)
	}
	return string(data), nil
}
