package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/repository"
)

// takenCodes reports every code as already issued.
type takenCodes struct {
	repository.ReferenceCodeRepository
	checked int
}

func (t *takenCodes) Exists(context.Context, string) (bool, error) {
	t.checked++
	return true, nil
}

func TestReferenceCodeGenerateAndValidate(t *testing.T) {
	codes := repository.NewReferenceCodeRepository(setupStore(t))
	svc := NewReferenceCodeService(codes, testResolver(), testValidator(), testLogger()).(*referenceCodeService)
	at := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	svc.now = fixedClock(at)
	ctx := context.Background()

	record, err := svc.Generate(ctx, dto.ReferenceCodeRequest{Prefix: "gv", SchoolName: " Green Valley "})
	require.NoError(t, err)
	require.Regexp(t, `^GV-[1-9][0-9]{3}$`, record.ReferenceCode)
	require.Equal(t, "Green Valley", record.SchoolName)
	require.True(t, record.CreatedAt.Equal(at))

	require.NoError(t, svc.Validate(ctx, record.ReferenceCode))
	require.NoError(t, svc.Validate(ctx, " "+record.ReferenceCode+" "))
	require.ErrorIs(t, svc.Validate(ctx, "GV-0001"), ErrNotFound)

	for _, malformed := range []string{"", "GV", "GV-12-3", "-1234", "GV-abcd"} {
		require.ErrorIs(t, svc.Validate(ctx, malformed), ErrInvalidReferenceCode, malformed)
	}

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, record.ReferenceCode, listed[0].ReferenceCode)
}

func TestReferenceCodeGenerateRejectsBadPrefix(t *testing.T) {
	svc := NewReferenceCodeService(repository.NewReferenceCodeRepository(setupStore(t)), testResolver(), testValidator(), testLogger())

	_, err := svc.Generate(context.Background(), dto.ReferenceCodeRequest{Prefix: "G-V", SchoolName: "Green Valley"})
	require.Error(t, err)
}

func TestReferenceCodeGenerateGivesUpAfterCollisions(t *testing.T) {
	codes := &takenCodes{}
	svc := NewReferenceCodeService(codes, testResolver(), testValidator(), testLogger())

	_, err := svc.Generate(context.Background(), dto.ReferenceCodeRequest{Prefix: "GV", SchoolName: "Green Valley"})
	require.ErrorIs(t, err, ErrReferenceCodeExhausted)
	require.Equal(t, referenceCodeAttempts, codes.checked)
}
