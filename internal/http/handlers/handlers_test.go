package handlers

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"
)

func TestParseCustomersCSV_UnitScale(t *testing.T) {
	content := "id,name,email,phone,account_value,risk_score,last_activity,segment\n" +
		"c1,Alice Martin,alice@example.com,0470-111-222,900,0.87,2026-07-01,Retail\n" +
		"c2,Bob Jansen,bob@example.com,,450,0.30,2026-08-10,Business\n"
	fh := makeMultipartFile(t, "customers", "customers.csv", content)

	customers, errs := parseCustomersCSV(fh, false)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(customers))
	}
	if customers[0].RiskScore != 0.87 {
		t.Fatalf("expected risk score 0.87, got %v", customers[0].RiskScore)
	}
	if customers[1].Segment != "Business" {
		t.Fatalf("expected segment Business, got %q", customers[1].Segment)
	}
}

func TestParseCustomersCSV_PercentScale(t *testing.T) {
	content := "id,name,account_value,churn_probability,last_activity\n" +
		"c1,Alice,900,87,2026-07-01\n"
	fh := makeMultipartFile(t, "customers", "customers.csv", content)

	customers, errs := parseCustomersCSV(fh, true)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if customers[0].RiskScore != 0.87 {
		t.Fatalf("expected normalized score 0.87, got %v", customers[0].RiskScore)
	}
}

func TestParseCustomersCSV_AlternateHeaders(t *testing.T) {
	content := "\ufeffcustomer_id,customer_name,contact_email,clv,churn_probability,last_activity_date\n" +
		"c9,Carol Martens,carol@example.com,1200,0.81,2026-06-15T10:30:00Z\n"
	fh := makeMultipartFile(t, "customers", "customers.csv", content)

	customers, errs := parseCustomersCSV(fh, false)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if customers[0].ID != "c9" || customers[0].Email != "carol@example.com" {
		t.Fatalf("alternate headers not mapped: %+v", customers[0])
	}
	if customers[0].Segment != "Retail" {
		t.Fatalf("missing segment should default to Retail, got %q", customers[0].Segment)
	}
}

func TestParseCustomersCSV_BadRowsReportedGoodRowsKept(t *testing.T) {
	content := "id,name,account_value,risk_score,last_activity,segment\n" +
		"c1,Alice,900,0.87,2026-07-01,Retail\n" +
		",Missing Id,100,0.5,2026-07-01,Retail\n" +
		"c3,Bad Score,100,1.5,2026-07-01,Retail\n" +
		"c4,Bad Segment,100,0.5,2026-07-01,Wholesale\n" +
		"c5,Eve,200,0.2,2026-07-02,Premium\n"
	fh := makeMultipartFile(t, "customers", "customers.csv", content)

	customers, errs := parseCustomersCSV(fh, false)
	if len(customers) != 2 {
		t.Fatalf("expected 2 valid customers, got %d", len(customers))
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 row errors, got %v", errs)
	}
	for _, e := range errs {
		if !strings.HasPrefix(e, "row ") {
			t.Fatalf("row error missing row number: %q", e)
		}
	}
	if customers[0].ID != "c1" || customers[1].ID != "c5" {
		t.Fatalf("wrong rows survived: %+v", customers)
	}
}

func TestParseCustomersCSV_NegativeAccountValueRejected(t *testing.T) {
	content := "id,name,account_value,risk_score,last_activity\n" +
		"c1,Alice,-10,0.5,2026-07-01\n"
	fh := makeMultipartFile(t, "customers", "customers.csv", content)

	customers, errs := parseCustomersCSV(fh, false)
	if len(customers) != 0 || len(errs) != 1 {
		t.Fatalf("expected a single row error, got customers=%d errs=%v", len(customers), errs)
	}
}

func TestNormalizeSegment(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "Retail", true},
		{" retail ", "Retail", true},
		{"BUSINESS", "Business", true},
		{"Premium", "Premium", true},
		{"wholesale", "", false},
	}
	for _, tc := range cases {
		got, err := normalizeSegment(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("normalizeSegment(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("normalizeSegment(%q) accepted an unknown segment", tc.in)
		}
	}
}

func TestValidateExt(t *testing.T) {
	if !validateExt("customers.CSV") {
		t.Fatal("uppercase extension should be accepted")
	}
	if validateExt("customers.xlsx") {
		t.Fatal("non-csv extension should be rejected")
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
