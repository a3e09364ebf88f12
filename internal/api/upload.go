package api

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rise-and-shine/quote3d/internal/filestore"
	"github.com/rise-and-shine/quote3d/internal/fingerprint"
	"github.com/rise-and-shine/quote3d/internal/geometry"
	"github.com/rise-and-shine/quote3d/internal/session"
)

// upload handles POST /upload: validate format, fingerprint the content,
// run the session duplicate check, persist the bytes and hand the file to
// the external geometry analyzer.
func (a *API) upload(c *fiber.Ctx) error {
	ctx := c.UserContext()

	fh, err := c.FormFile("file")
	if err != nil {
		return errx.New(
			"multipart field 'file' is required",
			errx.WithCode(codeMissingFile),
			errx.WithType(errx.T_Validation),
		)
	}

	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}
	if sessionID == "" {
		// No cart yet: open a fresh session so the client can keep using it.
		sessionID = uuid.NewString()
	}

	format := filestore.NormalizeFormat(fh.Filename)
	if !filestore.FormatAllowed(format) {
		return errx.New(
			fmt.Sprintf("unsupported file type: %s", format),
			errx.WithCode(filestore.CodeUnsupportedFormat),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"filename": fh.Filename}),
		)
	}

	src, err := fh.Open()
	if err != nil {
		return errx.Wrap(err)
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return errx.Wrap(err)
	}

	fp := fingerprint.FromBytes(data)

	switch outcome := a.registry.CheckAndRegister(sessionID, fh.Filename, fp); outcome {
	case session.DuplicateContent:
		return c.JSON(uploadSchema{
			Status:           statusDuplicate,
			SessionID:        sessionID,
			SessionFileCount: a.registry.FileCount(sessionID),
			Fingerprint:      fp.String(),
			Filename:         fh.Filename,
		})

	case session.NameConflict:
		return c.JSON(uploadSchema{
			Status:           statusNameConflict,
			SessionID:        sessionID,
			SessionFileCount: a.registry.FileCount(sessionID),
			Fingerprint:      fp.String(),
			Filename:         fh.Filename,
		})

	case session.Accepted:
	}

	obj, err := a.manager.Put(ctx, bytes.NewReader(data), fh.Filename, fp)
	if err != nil {
		// Keep check-then-store atomic from the caller's view: a failed
		// store must not leave a session entry behind, or retries would
		// be reported as duplicates.
		a.registry.RemoveEntry(sessionID, fh.Filename)
		return errx.Wrap(err)
	}

	var analysis *geometry.Analysis
	if a.analyzer != nil {
		analysis, err = a.analyzer.Analyze(ctx, bytes.NewReader(data), fh.Filename)
		if err != nil {
			// The file is stored and registered; the sweep reclaims it
			// eventually. Analysis failures are distinct from storage
			// failures so the client can tell the two apart.
			return errx.Wrap(err)
		}
	}

	convertedURL := ""
	if a.converter != nil && filestore.ConvertibleFormat(format) {
		convertedURL, err = a.convertForViewer(c, data, fh.Filename)
		if err != nil {
			// The viewer falls back to server-side rendering of the
			// original file; the upload itself succeeded.
			a.log.WithContext(ctx).Warnx(err)
		}
	}

	return c.JSON(uploadSchema{
		Status:           statusAccepted,
		SessionID:        sessionID,
		SessionFileCount: a.registry.FileCount(sessionID),
		Fingerprint:      fp.String(),
		File: &fileSchema{
			Filename:    obj.OriginalFilename,
			Handle:      obj.Handle,
			Size:        obj.Size,
			Format:      obj.Format,
			Fingerprint: obj.Fingerprint.String(),
			DownloadURL: downloadPath(obj.Handle),
		},
		Geometry:         analysis,
		ConvertedFileURL: convertedURL,
	})
}

// convertForViewer converts a CAD file to STL and stores the result as an
// independent object, returning its download path.
func (a *API) convertForViewer(c *fiber.Ctx, data []byte, filename string) (string, error) {
	ctx := c.UserContext()

	stl, err := a.converter.ConvertToSTL(ctx, bytes.NewReader(data), filename)
	if err != nil {
		return "", errx.Wrap(err)
	}
	defer func() { _ = stl.Close() }()

	stlBytes, err := io.ReadAll(stl)
	if err != nil {
		return "", errx.Wrap(err)
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	converted, err := a.manager.Put(
		ctx,
		bytes.NewReader(stlBytes),
		stem+"_converted.stl",
		fingerprint.FromBytes(stlBytes),
	)
	if err != nil {
		return "", errx.Wrap(err)
	}

	return downloadPath(converted.Handle), nil
}

// download handles GET /download/:handle, streaming the stored bytes back.
func (a *API) download(c *fiber.Ctx) error {
	handle := c.Params("handle")

	f, obj, err := a.manager.Get(c.UserContext(), handle)
	if err != nil {
		return errx.Wrap(err)
	}

	c.Set(fiber.HeaderContentType, obj.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", obj.OriginalFilename))

	return c.SendStream(f.Content, int(f.Info.Size))
}

// deleteFile handles DELETE /files/:handle. Idempotent: deleting an
// already-absent handle succeeds.
func (a *API) deleteFile(c *fiber.Ctx) error {
	if err := a.manager.Delete(c.UserContext(), c.Params("handle")); err != nil {
		return errx.Wrap(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func downloadPath(handle string) string {
	return "/download/" + handle
}

const codeMissingFile = "MISSING_FILE"
