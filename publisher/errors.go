/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package publisher

import (
	"fmt"
	"strings"
)

// PacketPublishFailure aggregates every per-publisher error from one
// PublisherList.Publish call. It is only raised after every publisher
// has been attempted.
type PacketPublishFailure struct {
	Failures []string
}

func (e *PacketPublishFailure) Error() string {
	return fmt.Sprintf("publisher: %d of the fan-out failed: %s", len(e.Failures), strings.Join(e.Failures, "; "))
}
