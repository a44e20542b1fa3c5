package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSubmission(t *testing.T) {
	before := testutil.ToFloat64(submissionsTotal.WithLabelValues("metrics-test"))
	RecordSubmission("metrics-test")
	RecordSubmission("metrics-test")

	if got := testutil.ToFloat64(submissionsTotal.WithLabelValues("metrics-test")); got != before+2 {
		t.Errorf("submissions: got %v, want %v", got, before+2)
	}
}

func TestRecordDispatch(t *testing.T) {
	before := testutil.ToFloat64(dispatchTotal.WithLabelValues("metrics-test", "sent"))
	RecordDispatch("metrics-test", "sent", 150*time.Millisecond)

	if got := testutil.ToFloat64(dispatchTotal.WithLabelValues("metrics-test", "sent")); got != before+1 {
		t.Errorf("dispatch: got %v, want %v", got, before+1)
	}
}

func TestRecordCleanupAndRejection(t *testing.T) {
	beforeCleanup := testutil.ToFloat64(cleanupTotal.WithLabelValues("failed"))
	beforeRejected := testutil.ToFloat64(attachmentsRejectedTotal)

	RecordCleanup("failed")
	RecordAttachmentRejected()

	if got := testutil.ToFloat64(cleanupTotal.WithLabelValues("failed")); got != beforeCleanup+1 {
		t.Errorf("cleanup: got %v, want %v", got, beforeCleanup+1)
	}
	if got := testutil.ToFloat64(attachmentsRejectedTotal); got != beforeRejected+1 {
		t.Errorf("rejected: got %v, want %v", got, beforeRejected+1)
	}
}

func TestHandler(t *testing.T) {
	RecordSubmission("ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "contact_submissions_total") {
		t.Error("metrics output missing contact_submissions_total")
	}
}
