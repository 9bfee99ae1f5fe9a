package certificate_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gaugyan/admin-api/internal/certificate"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettingsDefaults(t *testing.T) {
	db := testutils.TestDB(t)

	s, err := certificate.GetSettings(db)
	require.NoError(t, err)
	assert.Equal(t, "GG", s.SerialNumberPrefix)
	assert.Equal(t, certificate.FormatAuto, s.SerialNumberFormat)
	assert.EqualValues(t, 1, s.SerialNumberStart)
	assert.Equal(t, 4, s.SerialNumberPadding)
}

func TestSaveSettingsValidation(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  "random",
		SerialNumberStart:   1,
		SerialNumberPadding: 4,
	})
	assert.ErrorIs(t, err, certificate.ErrInvalidSettings)

	_, err = certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatAuto,
		SerialNumberStart:   1,
		SerialNumberPadding: 11,
	})
	assert.ErrorIs(t, err, certificate.ErrInvalidSettings)
}

func TestSaveSettingsRoundtrip(t *testing.T) {
	db := testutils.TestDB(t)

	saved, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "AYU",
		SerialNumberFormat:  certificate.FormatManual,
		SerialNumberStart:   500,
		SerialNumberPadding: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, "AYU", saved.SerialNumberPrefix)

	loaded, err := certificate.GetSettings(db)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestFormatSerialPadding(t *testing.T) {
	assert.Equal(t, "GG0007", certificate.FormatSerial("GG", 7, 4))
	assert.Equal(t, "GG1001", certificate.FormatSerial("GG", 1001, 4))
	// Numbers wider than the padding are not truncated.
	assert.Equal(t, "GG123456", certificate.FormatSerial("GG", 123456, 4))
	assert.Equal(t, "X7", certificate.FormatSerial("X", 7, 1))
}

func TestIssueAutoPaddingCorrectness(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatAuto,
		SerialNumberStart:   7,
		SerialNumberPadding: 4,
	})
	require.NoError(t, err)

	cert, err := certificate.Issue(db, "Asha Rao", "Ayurveda Basics", "2024-11-20", "")
	require.NoError(t, err)
	assert.Equal(t, "GG0007", cert.SerialNumber)
}

func TestIssueAutoSequential(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatAuto,
		SerialNumberStart:   1001,
		SerialNumberPadding: 4,
	})
	require.NoError(t, err)

	for i, want := range []string{"GG1001", "GG1002", "GG1003"} {
		cert, err := certificate.Issue(db, "Asha Rao", "Ayurveda Basics", "2024-11-20", "")
		require.NoError(t, err, "issue %d", i)
		assert.Equal(t, want, cert.SerialNumber)
	}

	view, err := certificate.Verify(db, "GG1002")
	require.NoError(t, err)
	assert.Equal(t, &certificate.View{
		SerialNumber:   "GG1002",
		StudentName:    "Asha Rao",
		CourseName:     "Ayurveda Basics",
		CompletionDate: "2024-11-20",
	}, view)

	s, err := certificate.GetSettings(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1004, s.SerialNumberStart, "counter must advance exactly once per issuance")
}

func TestIssueAutoConcurrent(t *testing.T) {
	db := testutils.TestDB(t)

	const n = 20
	const start = 100

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatAuto,
		SerialNumberStart:   start,
		SerialNumberPadding: 4,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	serials := make(chan string, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cert, err := certificate.Issue(db, fmt.Sprintf("Student %d", i), "Ayurveda Basics", "2024-11-20", "")
			if err != nil {
				errs <- err
				return
			}
			serials <- cert.SerialNumber
		}(i)
	}
	wg.Wait()
	close(serials)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent issuance failed: %v", err)
	}

	seen := make(map[string]bool)
	for s := range serials {
		assert.False(t, seen[s], "duplicate serial %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, n)

	// No gaps: exactly start..start+n-1 were allocated.
	for i := 0; i < n; i++ {
		expected := certificate.FormatSerial("GG", int64(start+i), 4)
		assert.True(t, seen[expected], "missing serial %s", expected)
	}

	s, err := certificate.GetSettings(db)
	require.NoError(t, err)
	assert.EqualValues(t, start+n, s.SerialNumberStart)
}

func TestIssueManual(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatManual,
		SerialNumberStart:   1,
		SerialNumberPadding: 4,
	})
	require.NoError(t, err)

	cert, err := certificate.Issue(db, "Asha Rao", "Ayurveda Basics", "2024-11-20", "GG1001")
	require.NoError(t, err)
	assert.Equal(t, "GG1001", cert.SerialNumber)
	assert.NotEmpty(t, cert.PublicID)

	// Missing serial in manual mode is rejected.
	_, err = certificate.Issue(db, "Ravi Kumar", "Ayurveda Basics", "2024-11-21", "")
	assert.ErrorIs(t, err, certificate.ErrMissingSerial)
}

func TestIssueManualDuplicateLeavesOriginal(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatManual,
		SerialNumberStart:   1,
		SerialNumberPadding: 4,
	})
	require.NoError(t, err)

	_, err = certificate.Issue(db, "Asha Rao", "Ayurveda Basics", "2024-11-20", "GG1001")
	require.NoError(t, err)

	_, err = certificate.Issue(db, "Someone Else", "Other Course", "2025-01-01", "GG1001")
	assert.ErrorIs(t, err, certificate.ErrDuplicateSerial)

	view, err := certificate.Verify(db, "GG1001")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", view.StudentName, "existing record must be untouched")

	var count int64
	db.Model(&models.Certificate{}).Where("serial_number = ?", "GG1001").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestVerifyMiss(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.Verify(db, "GG9999")
	assert.ErrorIs(t, err, certificate.ErrNotFound)
}

func TestVerifyIsCaseSensitive(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatManual,
		SerialNumberStart:   1,
		SerialNumberPadding: 4,
	})
	require.NoError(t, err)

	_, err = certificate.Issue(db, "Asha Rao", "Ayurveda Basics", "2024-11-20", "GG1001")
	require.NoError(t, err)

	_, err = certificate.Verify(db, "gg1001")
	assert.ErrorIs(t, err, certificate.ErrNotFound)
}

func TestRevokedSerialStaysDefined(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.SaveSettings(db, certificate.TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  certificate.FormatManual,
		SerialNumberStart:   1,
		SerialNumberPadding: 4,
	})
	require.NoError(t, err)

	_, err = certificate.Issue(db, "Asha Rao", "Ayurveda Basics", "2024-11-20", "GG1001")
	require.NoError(t, err)

	revoked, err := certificate.Revoke(db, "GG1001")
	require.NoError(t, err)
	assert.True(t, revoked.Revoked)
	assert.NotNil(t, revoked.RevokedAt)

	// Public lookup collapses to the uniform outcome, but the record stays.
	_, err = certificate.Verify(db, "GG1001")
	assert.ErrorIs(t, err, certificate.ErrNotFound)

	var count int64
	db.Model(&models.Certificate{}).Where("serial_number = ?", "GG1001").Count(&count)
	assert.EqualValues(t, 1, count)

	// Revoking again is a no-op.
	again, err := certificate.Revoke(db, "GG1001")
	require.NoError(t, err)
	assert.Equal(t, revoked.RevokedAt.Unix(), again.RevokedAt.Unix())

	_, err = certificate.Revoke(db, "GG9999")
	assert.ErrorIs(t, err, certificate.ErrNotFound)
}

func TestIssueSanitizesNames(t *testing.T) {
	db := testutils.TestDB(t)

	cert, err := certificate.Issue(db, "<b>Asha</b> Rao", "Ayurveda <script>alert(1)</script>Basics", "2024-11-20", "")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", cert.StudentName)
	assert.Equal(t, "Ayurveda Basics", cert.CourseName)
}

func TestIssueRequiresFields(t *testing.T) {
	db := testutils.TestDB(t)

	_, err := certificate.Issue(db, "", "Ayurveda Basics", "2024-11-20", "")
	assert.ErrorIs(t, err, certificate.ErrMissingFields)
}
