package storage

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlobService answers the subset of the Blob REST API AzureStorage uses
type fakeBlobService struct {
	mu         sync.Mutex
	containers map[string]bool
	blobs      map[string][]byte
	blocks     map[string]map[string][]byte
	denied     bool
}

func newFakeBlobService() *fakeBlobService {
	return &fakeBlobService{
		containers: make(map[string]bool),
		blobs:      make(map[string][]byte),
		blocks:     make(map[string]map[string][]byte),
	}
}

func (f *fakeBlobService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.denied {
		blobError(w, http.StatusForbidden, "AuthorizationFailure")
		return
	}

	container, blob, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	query := r.URL.Query()

	switch {
	case blob == "" && r.Method == http.MethodPut:
		if f.containers[container] {
			blobError(w, http.StatusConflict, "ContainerAlreadyExists")
			return
		}
		f.containers[container] = true
		w.WriteHeader(http.StatusCreated)

	case blob == "" && r.Method == http.MethodGet && query.Get("comp") == "list":
		f.list(w, container, query.Get("prefix"))

	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		key := container + "/" + blob
		switch query.Get("comp") {
		case "block":
			if f.blocks[key] == nil {
				f.blocks[key] = make(map[string][]byte)
			}
			f.blocks[key][query.Get("blockid")] = body
		case "blocklist":
			var list struct {
				Latest      []string `xml:"Latest"`
				Uncommitted []string `xml:"Uncommitted"`
			}
			if err := xml.Unmarshal(body, &list); err != nil {
				blobError(w, http.StatusBadRequest, "InvalidXmlDocument")
				return
			}
			var data []byte
			for _, id := range append(list.Latest, list.Uncommitted...) {
				data = append(data, f.blocks[key][id]...)
			}
			f.blobs[key] = data
			delete(f.blocks, key)
		default:
			f.blobs[key] = body
		}
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodGet:
		data, ok := f.blobs[container+"/"+blob]
		if !ok {
			blobError(w, http.StatusNotFound, "BlobNotFound")
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)

	case r.Method == http.MethodDelete:
		key := container + "/" + blob
		if _, ok := f.blobs[key]; !ok {
			blobError(w, http.StatusNotFound, "BlobNotFound")
			return
		}
		delete(f.blobs, key)
		w.WriteHeader(http.StatusAccepted)

	default:
		blobError(w, http.StatusBadRequest, "UnsupportedHttpVerb")
	}
}

func (f *fakeBlobService) list(w http.ResponseWriter, container, prefix string) {
	var names strings.Builder
	// map order keeps the listing unsorted
	for key := range f.blobs {
		name := strings.TrimPrefix(key, container+"/")
		if name == key || !strings.HasPrefix(name, prefix) {
			continue
		}
		fmt.Fprintf(&names, "<Blob><Name>%s</Name></Blob>", name)
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8"?><EnumerationResults ContainerName="%s"><Prefix>%s</Prefix><Blobs>%s</Blobs><NextMarker /></EnumerationResults>`,
		container, prefix, names.String())
}

func blobError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("x-ms-error-code", code)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func newTestAzureStorage(t *testing.T, fake *fakeBlobService) (*AzureStorage, error) {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := azblob.NewClientWithNoCredential(server.URL+"/", nil)
	require.NoError(t, err)

	return newAzureStorage(client, "reviews")
}

func TestAzureStorage_RoundTrip(t *testing.T) {
	fake := newFakeBlobService()
	s, err := newTestAzureStorage(t, fake)
	require.NoError(t, err)

	fake.mu.Lock()
	assert.True(t, fake.containers["reviews"])
	fake.mu.Unlock()

	require.NoError(t, s.Store("reviews-2024-01-02-00-00-00.json", []byte(`[]`)))
	require.NoError(t, s.Store("reviews-2024-01-01-00-00-00.json", []byte(`[{"ReviewId":"1"}]`)))
	require.NoError(t, s.Store("seed.csv", []byte("ReviewId,ReviewBody,Location,Timestamp\n")))

	data, err := s.Retrieve("reviews-2024-01-01-00-00-00.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"ReviewId":"1"}]`, string(data))

	names, err := s.List("reviews-")
	require.NoError(t, err)
	assert.Equal(t, []string{"reviews-2024-01-01-00-00-00.json", "reviews-2024-01-02-00-00-00.json"}, names)

	require.NoError(t, s.Delete("reviews-2024-01-01-00-00-00.json"))
	names, err = s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"reviews-2024-01-02-00-00-00.json", "seed.csv"}, names)

	_, err = s.Retrieve("reviews-2024-01-01-00-00-00.json")
	assert.Error(t, err)
	assert.Error(t, s.Delete("reviews-2024-01-01-00-00-00.json"))
}

func TestAzureStorage_ExistingContainer(t *testing.T) {
	fake := newFakeBlobService()
	fake.containers["reviews"] = true

	_, err := newTestAzureStorage(t, fake)
	assert.NoError(t, err)
}

func TestAzureStorage_ContainerDenied(t *testing.T) {
	fake := newFakeBlobService()
	fake.denied = true

	_, err := newTestAzureStorage(t, fake)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure container exists")
}

func TestNewAzureStorage_RequiresAccount(t *testing.T) {
	_, err := NewAzureStorage("", "reviews")
	assert.Error(t, err)
}
