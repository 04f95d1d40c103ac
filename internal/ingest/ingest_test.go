package ingest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/decoder"
	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/sheet-dashboard/backend/internal/store"
	"github.com/sheet-dashboard/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDecoder claims files starting with its magic and returns canned output.
type stubDecoder struct {
	magic   []byte
	records []models.Record
	err     error
	block   chan struct{}
	entered chan struct{}
	panics  bool
}

func (d *stubDecoder) Name() string         { return "stub" }
func (d *stubDecoder) Extensions() []string { return nil }
func (d *stubDecoder) Sniff(head []byte) bool {
	return bytes.HasPrefix(head, d.magic)
}
func (d *stubDecoder) Decode([]byte) ([]models.Record, error) {
	if d.entered != nil {
		close(d.entered)
	}
	if d.block != nil {
		<-d.block
	}
	if d.panics {
		panic("corrupt stream")
	}
	return d.records, d.err
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetLevel(log.OFF)
	return l
}

func newTestService(t *testing.T, extra ...decoder.Decoder) (*Service, *store.Store) {
	t.Helper()
	reg := decoder.NewRegistry()
	for _, d := range extra {
		reg.Register(d)
	}
	s := store.New()
	t.Cleanup(s.Close)
	return NewService(reg, s, quietLogger()), s
}

func TestIngest_XLSXScenario(t *testing.T) {
	svc, st := newTestService(t)
	data, err := testutil.BuildXLSX(testutil.SalesSheet())
	require.NoError(t, err)

	u, err := svc.Ingest(context.Background(), "sales.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, "sales.xlsx", u.Filename)
	assert.Equal(t, []string{"Region", "Sales"}, u.Columns)
	assert.Len(t, u.Rows, 3)
	assert.Equal(t, 1, st.Len())
	assert.False(t, svc.Uploading())
}

func TestIngest_ColumnsComeFromFirstRecord(t *testing.T) {
	stub := &stubDecoder{
		magic: []byte("STUB"),
		records: []models.Record{
			{Keys: []string{"b", "a"}, Row: models.Row{"b": "1", "a": "2"}},
			{Keys: []string{"a", "c"}, Row: models.Row{"a": "3", "c": "4"}},
		},
	}
	svc, _ := newTestService(t, stub)

	u, err := svc.Ingest(context.Background(), "x.bin", []byte("STUB...."))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, u.Columns)
	assert.Len(t, u.Rows, 2)
}

func TestIngest_EmptyDecodeFails(t *testing.T) {
	svc, st := newTestService(t)
	data, err := testutil.BuildXLSX([][]any{{"Region", "Sales"}})
	require.NoError(t, err)

	u, err := svc.Ingest(context.Background(), "empty.xlsx", data)

	assert.Nil(t, u)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "No data found in the Excel file", err.Error())
	assert.Equal(t, 0, st.Len())
}

func TestIngest_DecoderFailure(t *testing.T) {
	stub := &stubDecoder{magic: []byte("STUB"), err: errors.New("bad sheet")}
	svc, st := newTestService(t, stub)

	_, err := svc.Ingest(context.Background(), "x.bin", []byte("STUB"))

	var ingErr *IngestError
	require.ErrorAs(t, err, &ingErr)
	assert.Contains(t, err.Error(), "bad sheet")
	assert.Equal(t, 0, st.Len())
}

func TestIngest_DecoderPanicBecomesError(t *testing.T) {
	svc, st := newTestService(t, &stubDecoder{magic: []byte("STUB"), panics: true})

	_, err := svc.Ingest(context.Background(), "x.bin", []byte("STUB"))

	var ingErr *IngestError
	require.ErrorAs(t, err, &ingErr)
	assert.Contains(t, err.Error(), "corrupt stream")
	assert.Equal(t, 0, st.Len())
	assert.False(t, svc.Uploading())
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Ingest(context.Background(), "notes.txt", []byte("hello"))

	assert.ErrorIs(t, err, decoder.ErrUnsupportedFormat)
}

func TestIngestAs(t *testing.T) {
	csv := []byte("Region,Sales\nNorth,120\nSouth,80\n")

	tests := []struct {
		name     string
		format   string
		wantRows int
		wantErr  error
	}{
		{"named decoder skips detection", "csv", 2, nil},
		{"name is case-insensitive", "CSV", 2, nil},
		{"unknown name", "ods", 0, decoder.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t)

			u, err := svc.IngestAs(context.Background(), tt.format, "export.dat", csv)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, st.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "export.dat", u.Filename)
			assert.Equal(t, []string{"Region", "Sales"}, u.Columns)
			assert.Len(t, u.Rows, tt.wantRows)
		})
	}
}

func TestIngest_SingleFlight(t *testing.T) {
	stub := &stubDecoder{
		magic:   []byte("STUB"),
		records: []models.Record{{Keys: []string{"a"}, Row: models.Row{"a": "1"}}},
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	svc, st := newTestService(t, stub)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ingest(context.Background(), "first.bin", []byte("STUB"))
		done <- err
	}()

	select {
	case <-stub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first ingestion never started")
	}
	assert.True(t, svc.Uploading())

	_, err := svc.Ingest(context.Background(), "second.bin", []byte("STUB"))
	assert.ErrorIs(t, err, ErrIngestInProgress)

	close(stub.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, st.Len())
	assert.False(t, svc.Uploading())
}

func TestIngest_CancelledContext(t *testing.T) {
	svc, st := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Ingest(ctx, "sales.xlsx", []byte("PK"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, st.Len())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, Status{Type: StatusSuccess, Message: "File uploaded successfully!"}, StatusFor(nil))
	assert.Equal(t, Status{Type: StatusError, Message: NoDataMessage}, StatusFor(&DecodeError{}))
	assert.Equal(t, Status{Type: StatusError, Message: "Failed to upload file"}, StatusFor(&IngestError{}))
	assert.Equal(t, Status{Type: StatusError, Message: "Failed to upload file"}, StatusFor(&IngestError{Err: errors.New("")}))
}
