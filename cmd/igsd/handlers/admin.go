package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apibackups "github.com/atldata/igs/pkg/api/types/backups"
	apierr "github.com/atldata/igs/pkg/api/types/errors"
	kdb "github.com/atldata/igs/pkg/db"
	"github.com/atldata/igs/pkg/utils/archive"
)

// BackupHandler snapshots the database and stores it as a gzipped tarball
// under backupDir.
func BackupHandler(dbAdmin kdb.AdminInterface, backupDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return apierr.InternalServerError(err)
		}

		stamp := time.Now().UTC().Format("20060102T150405Z")
		snapshotPath := filepath.Join(backupDir, "igs-"+stamp+".db")

		if err := dbAdmin.Snapshot(ctx, snapshotPath); err != nil {
			if errors.Is(err, kdb.ErrUnsupported) {
				return apierr.BadRequest(
					"backups are only available on the sqlite backend", err,
				)
			}
			return storeError(err)
		}
		defer os.Remove(snapshotPath)

		archivePath := filepath.Join(backupDir, "igs-"+stamp+".tar.gz")
		dest, err := os.Create(archivePath)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if err := archive.TarGz(dest, map[string]string{"igs.db": snapshotPath}); err != nil {
			dest.Close()
			os.Remove(archivePath)
			return apierr.InternalServerError(err)
		}
		if err := dest.Close(); err != nil {
			return apierr.InternalServerError(err)
		}

		info, err := os.Stat(archivePath)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apibackups.Summary{
			Name:      info.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
}

// RestoreHandler loads the database back from a named archive under
// backupDir, replacing its current contents.
func RestoreHandler(dbAdmin kdb.AdminInterface, backupDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		name := c.QueryParam("archive")
		if name == "" {
			return apierr.BadRequest(
				"query parameter archive is required; see /api/admin/backups", nil,
			)
		}
		if name != filepath.Base(name) || !strings.HasSuffix(name, ".tar.gz") {
			return apierr.BadRequest(fmt.Sprintf("not a backup archive name: %s", name), nil)
		}

		f, err := os.Open(filepath.Join(backupDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		defer f.Close()

		unpacked, err := os.MkdirTemp("", "igs-restore-")
		if err != nil {
			return apierr.InternalServerError(err)
		}
		defer os.RemoveAll(unpacked)

		if err := archive.UntarGz(f, unpacked); err != nil {
			return apierr.BadRequest(fmt.Sprintf("broken backup archive %s: %s", name, err), err)
		}
		snapshot := filepath.Join(unpacked, "igs.db")
		if _, err := os.Stat(snapshot); err != nil {
			return apierr.BadRequest(
				fmt.Sprintf("%s does not hold a database snapshot", name), err,
			)
		}

		if err := dbAdmin.Restore(ctx, snapshot); err != nil {
			if errors.Is(err, kdb.ErrUnsupported) {
				return apierr.BadRequest(
					"restores are only available on the sqlite backend", err,
				)
			}
			return storeError(err)
		}

		return c.JSON(http.StatusOK, apibackups.Restored{Archive: name})
	}
}

// ListBackupsHandler lists the archives under backupDir, newest first.
func ListBackupsHandler(backupDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		matches, err := filepath.Glob(filepath.Join(backupDir, "*.tar.gz"))
		if err != nil {
			return apierr.InternalServerError(err)
		}

		found := make([]apibackups.Summary, 0, len(matches))
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				continue // removed since globbing
			}
			found = append(found, apibackups.Summary{
				Name:      info.Name(),
				Size:      info.Size(),
				CreatedAt: info.ModTime().UTC().Format(time.RFC3339),
			})
		}
		sort.SliceStable(found, func(i, j int) bool {
			return found[i].CreatedAt > found[j].CreatedAt
		})

		return c.JSON(http.StatusOK, apibackups.List{Backups: found})
	}
}
