package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/logger"
	"github.com/filmfest/catalogue-api/internal/model"
	"github.com/filmfest/catalogue-api/internal/pipeline"
	"github.com/filmfest/catalogue-api/internal/queue"
	"github.com/filmfest/catalogue-api/internal/storage"
)

// contentTypeAllowed is the fixed allow-list check for image uploads.
// The stored extension is derived from this header, never from a
// client-supplied filename.
func contentTypeAllowed(c echo.Context) pipeline.Check {
	return func(ctx context.Context, rc *pipeline.Request) pipeline.Outcome {
		ct := c.Request().Header.Get(echo.HeaderContentType)
		if _, err := storage.Filename(storage.KindUser, 0, ct); err != nil {
			return pipeline.BadRequest("invalid image supplied (possibly incorrect file type)")
		}
		return pipeline.Allow()
	}
}

// serveImage streams a stored image with the content type resolved from
// its extension. A filename recorded in the store but missing on disk is
// reported as not found rather than an internal fault.
func serveImage(c echo.Context, images *storage.ImageStore, filename string) error {
	data, err := images.Read(filename)
	if os.IsNotExist(err) {
		return respond(c, pipeline.NotFound("image not found"))
	}
	if err != nil {
		return fail(c, err)
	}
	return c.Blob(http.StatusOK, storage.ContentTypeFor(filename), data)
}

// replaceImage performs the commit step of an image upload as sequential,
// awaited operations ordered before the response: write the new file,
// persist the reference, then retire the old file. If persisting fails the
// freshly written file is removed again (compensation); if retiring the
// old file fails after the commit, the orphan is handed to the janitor
// queue instead of being silently leaked. Returns 201 for a first upload
// and 200 for a replacement.
func replaceImage(c echo.Context, images *storage.ImageStore, janitor *queue.Publisher,
	kind string, id int64, oldName string,
	persist func(ctx context.Context, filename string) error) error {

	ctx := c.Request().Context()

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respond(c, pipeline.BadRequest("could not read image data"))
	}
	newName, err := storage.Filename(kind, id, c.Request().Header.Get(echo.HeaderContentType))
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid image supplied (possibly incorrect file type)"))
	}

	if err := images.Write(newName, data); err != nil {
		return fail(c, err)
	}
	if err := persist(ctx, newName); err != nil {
		// Compensate: do not leave an unreferenced file behind. When the
		// new name equals the old one the bytes were overwritten in place
		// and the previous image is already gone; nothing to restore.
		if newName != oldName {
			if rmErr := images.Remove(newName); rmErr != nil {
				publishOrphan(janitor, newName, "compensation after failed commit")
			}
		}
		return fail(c, err)
	}
	if oldName != "" && oldName != newName {
		// Re-uploading with a different image type abandons the old file;
		// it must be deleted, not merely forgotten.
		if err := images.Remove(oldName); err != nil {
			publishOrphan(janitor, oldName, "replaced with different extension")
		}
	}

	if oldName == "" {
		return c.NoContent(http.StatusCreated)
	}
	return c.NoContent(http.StatusOK)
}

func publishOrphan(janitor *queue.Publisher, filename, reason string) {
	ev := queue.ImageOrphanedEvent{
		Filename:   filename,
		Reason:     reason,
		OrphanedAt: time.Now().UTC().Format(model.DateTime),
	}
	if err := janitor.PublishOrphan(context.Background(), ev); err != nil {
		// Last resort: the file stays on disk and only the log knows.
		logger.Log.Errorw("orphaned image could not be queued for cleanup",
			"filename", filename, "reason", reason, "err", err)
	}
}
