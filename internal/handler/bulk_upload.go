package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type importFunc func(name string, data io.Reader) (dto.BulkResult, error)

// receiveWorkbook reads the multipart "file" field and runs it through run.
// With ?report=xlsx and at least one rejected row the response is the failure
// workbook instead of the JSON summary.
func receiveWorkbook(c *fiber.Ctx, logger zerolog.Logger, imports service.BulkImportService, run importFunc) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := header.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer file.Close()

	result, err := run(header.Filename, file)
	if err != nil {
		return respondError(c, logger, err, "bulk upload failed")
	}

	requestLogger(logger, c).Info().
		Str("file", header.Filename).
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Msg("bulk upload processed")

	if c.Query("report") == "xlsx" && result.FailedCount > 0 {
		report, err := imports.FailureReport(result)
		if err != nil {
			return respondError(c, logger, err, "failed to build failure report")
		}
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="bulk-upload-failures.xlsx"`)
		return c.Status(fiber.StatusOK).Send(report)
	}

	return utils.SendSuccess(c, "bulk upload processed", result)
}
