package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func jsonResponse(t *testing.T, status int, v any) *http.Response {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBuffer(data)),
	}
}

func Test_Client_List_ShouldDecodeRecords(t *testing.T) {

	assert := assert.New(t)
	records := []entities.JobRecord{
		{ID: "1", CompanyName: "Acme", Status: entities.StatusApplied, LastUpdated: "2024-01-01T00:00:00Z"},
		{ID: "2", CompanyName: "Globex", Status: entities.StatusSaved, LastUpdated: "2024-01-02T00:00:00Z"},
	}

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet && req.URL.String() == "http://api.local/api/applications"
	})).Return(jsonResponse(t, http.StatusOK, records), nil)

	client := NewClient("http://api.local/api/", time.Second)
	client.SetHTTPClient(mockClient)

	result, err := client.List(context.Background())
	assert.NoError(err)
	assert.Equal(records, result)
	mockClient.AssertExpectations(t)
}

func Test_Client_Get_NotFound_ShouldReturnNil(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).
		Return(jsonResponse(t, http.StatusNotFound, map[string]string{"error": "Application not found"}), nil)

	client := NewClient("http://api.local/api", time.Second)
	client.SetHTTPClient(mockClient)

	record, err := client.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func Test_Client_ServerError_ShouldBeUnreachable(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).
		Return(jsonResponse(t, http.StatusInternalServerError, map[string]string{"error": "boom"}), nil)

	client := NewClient("http://api.local/api", time.Second)
	client.SetHTTPClient(mockClient)

	_, err := client.Get(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
}

func Test_Client_BadRequest_ShouldNotBeUnreachable(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).
		Return(jsonResponse(t, http.StatusBadRequest, map[string]string{"error": "invalid"}), nil)

	client := NewClient("http://api.local/api", time.Second)
	client.SetHTTPClient(mockClient)

	_, err := client.Create(context.Background(), entities.JobRecord{ID: "1"})
	require.Error(t, err)
	assert.False(t, IsUnreachable(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func Test_Client_TransportError_ShouldBeUnreachable(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(nil, io.ErrUnexpectedEOF)

	client := NewClient("http://api.local/api", time.Second)
	client.SetHTTPClient(mockClient)

	_, err := client.List(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.True(t, IsUnreachable(err))
}

func Test_Client_SlowServer_ShouldTimeout(t *testing.T) {

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond)

	start := time.Now()
	_, err := client.List(context.Background())

	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsUnreachable(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func Test_Client_CreateUpdateDelete_AgainstServer_ShouldRoundTrip(t *testing.T) {

	assert := assert.New(t)
	stored := map[string]entities.JobRecord{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /applications", func(w http.ResponseWriter, r *http.Request) {
		var rec entities.JobRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		stored[rec.ID] = rec
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	})
	mux.HandleFunc("PUT /applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		var rec entities.JobRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		stored[r.PathValue("id")] = rec
		_ = json.NewEncoder(w).Encode(rec)
	})
	mux.HandleFunc("DELETE /applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := stored[r.PathValue("id")]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(stored, r.PathValue("id"))
		_, _ = w.Write([]byte(`{"message":"Application deleted successfully"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	ctx := context.Background()

	created, err := client.Create(ctx, entities.JobRecord{ID: "a1", CompanyName: "Acme",
		Status: entities.StatusApplied, LastUpdated: "2024-01-01T00:00:00Z"})
	assert.NoError(err)
	assert.Equal("Acme", created.CompanyName)

	created.Status = entities.StatusInterviewing
	updated, err := client.Update(ctx, created)
	assert.NoError(err)
	assert.Equal(entities.StatusInterviewing, updated.Status)
	assert.Equal(entities.StatusInterviewing, stored["a1"].Status)

	deleted, err := client.Delete(ctx, "a1")
	assert.NoError(err)
	assert.True(deleted)

	deleted, err = client.Delete(ctx, "a1")
	assert.NoError(err)
	assert.False(deleted)
}

func Test_Client_Upload_ShouldSendMultipartFile(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if header.Filename != "cv.pdf" || string(content) != "pdf-bytes" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"filePath":"/api/files/file-1-2.pdf"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	path, err := client.Upload(context.Background(), "cv.pdf", []byte("pdf-bytes"))
	assert.NoError(t, err)
	assert.Equal(t, "/api/files/file-1-2.pdf", path)
}

func Test_Client_Health_ShouldDecodeStatus(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.Path == "/api/health"
	})).Return(jsonResponse(t, http.StatusOK, HealthStatus{Status: "limited", Message: "uploads unavailable"}), nil)

	client := NewClient("http://api.local/api", time.Second)
	client.SetHTTPClient(mockClient)

	status, err := client.Health(context.Background())
	assert.NoError(t, err)
	assert.False(t, status.IsOK())
	assert.Equal(t, "limited", status.Status)
}
