package server

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// 独立命名空间，避免与 NewHandler 注册的全局实例冲突
var testMetrics = NewMetrics("server_test")

func TestRecordDonationStatus(t *testing.T) {
	testMetrics.RecordDonationStatus("pending")
	testMetrics.RecordDonationStatus("pending")
	testMetrics.RecordDonationStatus("inprogress")

	if got := testutil.ToFloat64(testMetrics.DonationRequestsTotal.WithLabelValues("pending")); got != 2 {
		t.Errorf("donation_requests_total{status=pending} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(testMetrics.DonationRequestsTotal.WithLabelValues("inprogress")); got != 1 {
		t.Errorf("donation_requests_total{status=inprogress} = %v, want 1", got)
	}
}

func TestRecordFund(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.FundsRecordedTotal)
	testMetrics.RecordFund()
	if got := testutil.ToFloat64(testMetrics.FundsRecordedTotal); got != before+1 {
		t.Errorf("funds_recorded_total = %v, want %v", got, before+1)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/donation-request/64f0c0ffee0ddba11ad0beef": "/donation-request/{id}",
		"/user/alice@x.com":                          "/user/{email}",
		"/blogs/64f0c0ffee0ddba11ad0beef":            "/blogs/{id}",
		"/funds":                                     "/funds",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
