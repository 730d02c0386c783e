package persist

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// RemoteAPI pushes snapshots to the legacy sync API. Writes are debounced so
// a burst of checkouts turns into a single PUT per collection.
type RemoteAPI struct {
	BaseURL string
	Client  *http.Client
	Wait    time.Duration
}

func NewRemoteAPI(baseURL string) *RemoteAPI {
	return &RemoteAPI{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Wait:    2 * time.Second,
	}
}

func (r *RemoteAPI) Name() string { return "remote" }

func (r *RemoteAPI) Debounce() time.Duration { return r.Wait }

func (r *RemoteAPI) Write(scopeID, key string, data []byte) error {
	url := fmt.Sprintf("%s/api/shops/%s/%s", r.BaseURL, scopeID, key)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote sync returned %s", resp.Status)
	}
	return nil
}

// FolderExport mirrors each collection to a JSON file, for users who point the
// shop at a synced folder (Dropbox, network share) as a poor man's backup.
type FolderExport struct {
	Dir string
}

func NewFolderExport(dir string) *FolderExport {
	return &FolderExport{Dir: dir}
}

func (f *FolderExport) Name() string { return "folder" }

func (f *FolderExport) Debounce() time.Duration { return 0 }

// Write lands the file with a rename so readers of the synced folder never
// see a half-written JSON document.
func (f *FolderExport) Write(scopeID, key string, data []byte) error {
	dir := filepath.Join(f.Dir, scopeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	final := filepath.Join(dir, key+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}
