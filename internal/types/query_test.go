package types

import (
	"testing"
	"time"
)

func TestQueryStringRangeForm(t *testing.T) {
	slice := TimeSlice{Start: mustDate("2022-01-01"), End: mustDate("2022-12-31"), Granularity: GranularityYear}
	q, err := NewSearchQuery("acme.com", slice, ResourceRepositories)
	if err != nil {
		t.Fatal(err)
	}
	want := `"acme.com" created:2022-01-01..2022-12-31`
	if got := q.QueryString(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestQueryStringSingleDayForm(t *testing.T) {
	day := mustDate("2022-03-15")
	slice := TimeSlice{Start: day, End: day, Granularity: GranularityDay}
	q, _ := NewSearchQuery("acme.com", slice, ResourceRepositories)
	want := `"acme.com" created:2022-03-15`
	if got := q.QueryString(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNewSearchQueryRejectsEmptyTerm(t *testing.T) {
	if _, err := NewSearchQuery("", NewYearSlice(2022), ResourceCode); err != ErrEmptyTerm {
		t.Fatalf("got %v, want ErrEmptyTerm", err)
	}
}

func mustDate(s string) time.Time {
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return parsed
}
