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

// Package record edits content records embedded in generated JavaScript modules.
//
// A collection module exports one array of object literals:
//
//	export const notes = [
//	  {
//	    id: 'intro',
//	    title: 'Intro',
//	    body: `# Hello`,
//	  },
//	];
//
// The module text is tokenized just far enough to find the exported array,
// the boundaries of each element, and the top-level properties of each
// object. Strings, template literals and comments are skipped as units, so a
// body that quotes another record's source can never be mistaken for it.
//
// Edits splice new text into the original source. Everything outside the
// edited element, including comments and formatting, is preserved.
package record
