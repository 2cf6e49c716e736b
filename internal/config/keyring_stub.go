/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

//go:build nokeyring

// The nokeyring tag builds without an OS keychain (headless CI, containers).
// Tokens are then held in process memory only.

package config

import "sync"

var (
	stubMu     sync.Mutex
	stubTokens = map[string]string{}
)

func stubKey(service, key string) string { return service + "/" + key }

var keyringGet = func(service, key string) (string, error) {
	stubMu.Lock()
	defer stubMu.Unlock()
	return stubTokens[stubKey(service, key)], nil
}

var keyringSet = func(service, key, value string) error {
	stubMu.Lock()
	defer stubMu.Unlock()
	stubTokens[stubKey(service, key)] = value
	return nil
}

var keyringDelete = func(service, key string) error {
	stubMu.Lock()
	defer stubMu.Unlock()
	delete(stubTokens, stubKey(service, key))
	return nil
}
