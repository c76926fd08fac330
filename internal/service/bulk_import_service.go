package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/observability"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/tables"
)

const (
	entityStudents     = "students"
	entityCoordinators = "coordinators"
	reasonMissing      = "Missing required fields"
	reasonLookup       = "Lookup failed"
	reasonPassword     = "Password could not be processed"
	xlsxMime           = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	// ErrUploadTooLarge indicates the workbook exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the payload is not an xlsx workbook.
	ErrUploadTypeNotAllowed = errors.New("only .xlsx workbooks are accepted")
	// ErrEmptyWorkbook indicates a workbook without a header row.
	ErrEmptyWorkbook = errors.New("workbook has no header row")

	studentColumns = []string{
		"name", "username", "password", "PhoneNumber", "teacherPhoneNumber", "whatsappNumber",
		"standard", "schoolName", "country", "state", "city",
	}
	coordinatorColumns = []string{
		"email", "password", "phoneNumber", "whatsappNumber", "country", "state", "city", "name", "category",
	}
)

// RosterArchive keeps a copy of uploaded workbooks.
type RosterArchive interface {
	Store(ctx context.Context, entity, name string, reader io.Reader) (string, error)
}

// StudentImportOptions scope a student roster. SchoolName overrides the sheet column;
// CoordinatorID marks the rows as recruited and seeds mockScore/liveScore attempts.
type StudentImportOptions struct {
	SchoolName    string
	CoordinatorID string
}

// BulkImportService imports student and coordinator rosters from xlsx workbooks.
type BulkImportService interface {
	ImportStudents(ctx context.Context, name string, data io.Reader, opts StudentImportOptions) (dto.BulkResult, error)
	ImportCoordinators(ctx context.Context, name string, data io.Reader) (dto.BulkResult, error)
	FailureReport(result dto.BulkResult) ([]byte, error)
}

// BulkImportDeps groups the collaborators of the import service.
type BulkImportDeps struct {
	Students     repository.StudentRepository
	Coordinators repository.CoordinatorRepository
	Rankings     RankingService
	Incentives   IncentiveService
	Tables       *tables.Tables
	Archive      RosterArchive
	Cache        *redis.Client
	BatchSize    int
	MaxSizeMB    int
	Logger       zerolog.Logger
}

type bulkImportService struct {
	students     repository.StudentRepository
	coordinators repository.CoordinatorRepository
	rankings     RankingService
	incentives   IncentiveService
	tables       *tables.Tables
	archive      RosterArchive
	cache        *redis.Client
	batchSize    int
	maxSize      int64
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewBulkImportService constructs the roster importer. Archive and Incentives may be nil.
func NewBulkImportService(deps BulkImportDeps) BulkImportService {
	batch := deps.BatchSize
	if batch <= 0 {
		batch = 50
	}
	maxMB := deps.MaxSizeMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return &bulkImportService{
		students:     deps.Students,
		coordinators: deps.Coordinators,
		rankings:     deps.Rankings,
		incentives:   deps.Incentives,
		tables:       deps.Tables,
		archive:      deps.Archive,
		cache:        deps.Cache,
		batchSize:    batch,
		maxSize:      int64(maxMB) * 1024 * 1024,
		logger:       deps.Logger.With().Str("component", "bulk_import_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/bulk_import"),
		now:          time.Now,
	}
}

// sheetRow is one data row keyed by lower-cased header.
type sheetRow struct {
	number int
	cells  map[string]string
}

func (r sheetRow) get(column string) string {
	return strings.TrimSpace(r.cells[strings.ToLower(column)])
}

func (r sheetRow) missing(columns []string) bool {
	for _, column := range columns {
		if r.get(column) == "" {
			return true
		}
	}
	return false
}

func (s *bulkImportService) ImportStudents(ctx context.Context, name string, data io.Reader, opts StudentImportOptions) (dto.BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "bulk_import.students", trace.WithAttributes(
		attribute.String("bulk.school", opts.SchoolName),
		attribute.String("bulk.coordinator_id", opts.CoordinatorID),
	))
	defer span.End()

	payload, rows, err := s.readWorkbook(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "workbook rejected")
		return dto.BulkResult{}, err
	}

	result := dto.BulkResult{FailedEntries: []dto.BulkFailure{}}
	seen := map[string]struct{}{}
	var (
		pending []models.Student
		seeds   []SeedAttempt
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := s.students.CreateBatch(ctx, pending); err != nil {
			return fmt.Errorf("store student batch: %w", err)
		}
		result.SuccessCount += len(pending)
		pending = pending[:0]
		return nil
	}

	for _, row := range rows {
		student, rowSeeds, failure := s.buildStudent(ctx, row, opts, seen)
		if failure != nil {
			result.FailedEntries = append(result.FailedEntries, *failure)
			continue
		}
		pending = append(pending, student)
		seeds = append(seeds, rowSeeds...)
		if len(pending) >= s.batchSize {
			if err := flush(); err != nil {
				span.RecordError(err)
				return dto.BulkResult{}, err
			}
		}
	}
	if err := flush(); err != nil {
		span.RecordError(err)
		return dto.BulkResult{}, err
	}
	result.FailedCount = len(result.FailedEntries)

	if len(seeds) > 0 && s.rankings != nil {
		if err := s.rankings.SeedAttempts(ctx, seeds); err != nil {
			s.logger.Error().Err(err).Int("seeds", len(seeds)).Msg("failed to seed imported scores")
		}
	}

	if opts.CoordinatorID != "" {
		counts, err := s.finishCoordinatorImport(ctx, opts.CoordinatorID, result.SuccessCount)
		if err != nil {
			span.RecordError(err)
			return dto.BulkResult{}, err
		}
		result.TotalPracticeTests = counts.TotalPracticeTests
		result.FinalPracticeTests = counts.FinalPracticeTests
	}

	result.ArchiveURL = s.store(ctx, entityStudents, name, payload)
	s.record(entityStudents, result)
	return result, nil
}

func (s *bulkImportService) buildStudent(ctx context.Context, row sheetRow, opts StudentImportOptions, seen map[string]struct{}) (models.Student, []SeedAttempt, *dto.BulkFailure) {
	username := row.get("username")
	fail := func(reason string) (models.Student, []SeedAttempt, *dto.BulkFailure) {
		return models.Student{}, nil, &dto.BulkFailure{Row: row.number, Identifier: username, Reason: reason}
	}

	schoolName := row.get("schoolName")
	if opts.SchoolName != "" {
		row.cells["schoolname"] = opts.SchoolName
		schoolName = opts.SchoolName
	}
	if row.missing(studentColumns) {
		return fail(reasonMissing)
	}

	if _, dup := seen[username]; dup {
		return fail("Duplicate username in workbook")
	}
	if _, err := s.students.FindByUsername(ctx, username); err == nil {
		return fail("Username already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Int("row", row.number).Msg("username lookup failed")
		return fail(reasonLookup)
	}

	practice, err := optionalInt(row.get("practiceTestsAttempted"))
	if err != nil || practice < 0 {
		return fail("Invalid practiceTestsAttempted")
	}

	hash, err := HashPassword(row.get("password"))
	if err != nil {
		s.logger.Error().Err(err).Int("row", row.number).Msg("password hashing failed")
		return fail(reasonPassword)
	}

	now := s.now().UTC()
	student := models.Student{
		UID:                    uuid.NewString(),
		Name:                   row.get("name"),
		Username:               username,
		Password:               hash,
		PhoneNumber:            row.get("PhoneNumber"),
		TeacherPhoneNumber:     row.get("teacherPhoneNumber"),
		WhatsappNumber:         row.get("whatsappNumber"),
		Standard:               row.get("standard"),
		SchoolName:             schoolName,
		Country:                row.get("country"),
		State:                  row.get("state"),
		City:                   row.get("city"),
		PaymentStatus:          models.PaymentUnpaid,
		PracticeTestsAttempted: practice,
		AddedBy:                opts.CoordinatorID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	var seeds []SeedAttempt
	if opts.CoordinatorID != "" {
		for _, seed := range []struct{ column, testType string }{{"mockScore", tables.TestMock}, {"liveScore", tables.TestLive}} {
			score, err := optionalInt(row.get(seed.column))
			test, _ := s.tables.Test(seed.testType)
			if err != nil || score < 0 || score > test.MaxScore {
				return fail("Invalid " + seed.column)
			}
			if score > 0 {
				seeds = append(seeds, SeedAttempt{Student: student, Type: seed.testType, Score: score})
			}
		}
	}

	seen[username] = struct{}{}
	return student, seeds, nil
}

func (s *bulkImportService) finishCoordinatorImport(ctx context.Context, coordinatorID string, added int) (dto.PracticeTestCounts, error) {
	coordinator, err := s.coordinators.Get(ctx, coordinatorID)
	if err != nil {
		return dto.PracticeTestCounts{}, err
	}
	if err := s.coordinators.Update(ctx, coordinatorID, map[string]any{
		"totalStudents": coordinator.TotalStudents + added,
		"updatedAt":     s.now().UTC(),
	}); err != nil {
		return dto.PracticeTestCounts{}, err
	}

	if s.incentives != nil && added > 0 {
		if _, err := s.incentives.Recalculate(ctx, coordinatorID, TriggerBulkUpload); err != nil {
			s.logger.Warn().Err(err).Str("coordinator_id", coordinatorID).Msg("incentive recalculation after import failed")
		}
	}

	recruited, err := s.students.ListByCoordinator(ctx, coordinatorID)
	if err != nil {
		return dto.PracticeTestCounts{}, err
	}
	return countPracticeTests(recruited), nil
}

func (s *bulkImportService) ImportCoordinators(ctx context.Context, name string, data io.Reader) (dto.BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "bulk_import.coordinators")
	defer span.End()

	payload, rows, err := s.readWorkbook(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "workbook rejected")
		return dto.BulkResult{}, err
	}

	result := dto.BulkResult{FailedEntries: []dto.BulkFailure{}}
	seen := map[string]struct{}{}
	var pending []models.Coordinator

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := s.coordinators.CreateBatch(ctx, pending); err != nil {
			return fmt.Errorf("store coordinator batch: %w", err)
		}
		result.SuccessCount += len(pending)
		pending = pending[:0]
		return nil
	}

	for _, row := range rows {
		coordinator, failure := s.buildCoordinator(ctx, row, seen)
		if failure != nil {
			result.FailedEntries = append(result.FailedEntries, *failure)
			continue
		}
		pending = append(pending, coordinator)
		if len(pending) >= s.batchSize {
			if err := flush(); err != nil {
				span.RecordError(err)
				return dto.BulkResult{}, err
			}
		}
	}
	if err := flush(); err != nil {
		span.RecordError(err)
		return dto.BulkResult{}, err
	}
	result.FailedCount = len(result.FailedEntries)
	if result.SuccessCount > 0 {
		invalidateStandings(ctx, s.cache, s.logger)
	}

	result.ArchiveURL = s.store(ctx, entityCoordinators, name, payload)
	s.record(entityCoordinators, result)
	return result, nil
}

func (s *bulkImportService) buildCoordinator(ctx context.Context, row sheetRow, seen map[string]struct{}) (models.Coordinator, *dto.BulkFailure) {
	email := normalizeEmail(row.get("email"))
	fail := func(reason string) (models.Coordinator, *dto.BulkFailure) {
		return models.Coordinator{}, &dto.BulkFailure{Row: row.number, Identifier: email, Reason: reason}
	}

	if row.missing(coordinatorColumns) {
		return fail(reasonMissing)
	}
	category := row.get("category")
	if _, ok := s.tables.Category(category); !ok {
		return fail(fmt.Sprintf("Invalid category %q", category))
	}
	if _, dup := seen[email]; dup {
		return fail("Duplicate email in workbook")
	}
	if _, err := s.coordinators.FindByEmail(ctx, email); err == nil {
		return fail("Email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Int("row", row.number).Msg("coordinator email lookup failed")
		return fail(reasonLookup)
	}

	hash, err := HashPassword(row.get("password"))
	if err != nil {
		s.logger.Error().Err(err).Int("row", row.number).Msg("password hashing failed")
		return fail(reasonPassword)
	}

	now := s.now().UTC()
	seen[email] = struct{}{}
	return models.Coordinator{
		UserID:         uuid.NewString(),
		Name:           row.get("name"),
		Email:          email,
		Password:       hash,
		PhoneNumber:    row.get("phoneNumber"),
		WhatsappNumber: row.get("whatsappNumber"),
		Country:        row.get("country"),
		State:          row.get("state"),
		City:           row.get("city"),
		Role:           models.RoleCoordinator,
		Status:         models.CoordinatorApproved,
		Category:       category,
		ApprovedAt:     &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// FailureReport renders the rejected rows as a workbook for download.
func (s *bulkImportService) FailureReport(result dto.BulkResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Failures"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for i, header := range []string{"Row", "Identifier", "Reason"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}
	for i, failure := range result.FailedEntries {
		values := []any{failure.Row, failure.Identifier, failure.Reason}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), nil
}

// readWorkbook enforces the size and type limits and returns the first sheet's data rows.
func (s *bulkImportService) readWorkbook(data io.Reader) ([]byte, []sheetRow, error) {
	if data == nil {
		return nil, nil, errors.New("file is required")
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(data, s.maxSize+1)); err != nil {
		return nil, nil, err
	}
	if int64(buf.Len()) > s.maxSize {
		return nil, nil, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	if !detected.Is(xlsxMime) && !detected.Is("application/zip") {
		return nil, nil, ErrUploadTypeNotAllowed
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUploadTypeNotAllowed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyWorkbook
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil, ErrEmptyWorkbook
	}

	headers := make([]string, len(raw[0]))
	for i, header := range raw[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	rows := make([]sheetRow, 0, len(raw)-1)
	for i, values := range raw[1:] {
		if blank(values) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for col, header := range headers {
			if header != "" && col < len(values) {
				cells[header] = values[col]
			}
		}
		rows = append(rows, sheetRow{number: i + 2, cells: cells})
	}
	return buf.Bytes(), rows, nil
}

func (s *bulkImportService) store(ctx context.Context, entity, name string, payload []byte) string {
	if s.archive == nil {
		return ""
	}
	url, err := s.archive.Store(ctx, entity, name, bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn().Err(err).Str("entity", entity).Msg("roster archive failed")
		return ""
	}
	return url
}

func (s *bulkImportService) record(entity string, result dto.BulkResult) {
	observability.BulkRows().WithLabelValues(entity, "success").Add(float64(result.SuccessCount))
	observability.BulkRows().WithLabelValues(entity, "failed").Add(float64(result.FailedCount))
	s.logger.Info().
		Str("entity", entity).
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Msg("roster imported")
}

func optionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", value)
	}
	return int(f), nil
}

func blank(values []string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
