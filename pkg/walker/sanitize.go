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

package walker

import (
	"strings"
)

var fileNameReplacer = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", ";", "_", "?", "_",
	"!", "_", "<", "_", ">", "_", `"`, "_", "|", "_", "*", "_",
)

// SanitizeFileName replaces characters hosts allow in document names but
// filesystems reject
func SanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}

func safeSegment(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
