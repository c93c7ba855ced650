// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package host

import (
	"context"
	"io"
	"net/http"
	"os"

	"gitlab.com/tozd/go/errors"
)

// 📥 DownloadFile downloads a file from a URL with context support
func DownloadFile(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Errorf("downloading file: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// 💾 WriteNew writes r to a file that must not exist yet
func WriteNew(r io.Reader, destPath string) error {
	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.Errorf("copying file content: %w", err)
	}

	if err := f.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}
	return nil
}

// 📋 CopyFile copies a local file to a destination that must not exist yet
func CopyFile(src, destPath string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	return WriteNew(source, destPath)
}

// 🌐 DownloadTo downloads url into a destination that must not exist yet
func DownloadTo(ctx context.Context, client *http.Client, url, destPath string) error {
	body, err := DownloadFile(ctx, client, url)
	if err != nil {
		return err
	}
	defer body.Close()

	return WriteNew(body, destPath)
}
