/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"dashcanvas/internal/domain"
	"dashcanvas/internal/geom"
)

// The interaction state is a tagged union: at most one of drag, resize, or
// pan is ever active, enforced by the type rather than by parallel nullable
// fields. Pointer handlers switch exhaustively over these types.

type interactionState interface{ interaction() }

type stateIdle struct{}

type stateDragging struct {
	widgetID   string
	startPos   domain.Position
	startMouse geom.Pt
}

type stateResizing struct {
	widgetID   string
	dir        geom.Direction
	startPos   domain.Position
	startSize  domain.Dimensions
	startMouse geom.Pt
}

type statePanning struct {
	startViewport domain.Viewport
	startMouse    geom.Pt
}

func (stateIdle) interaction()     {}
func (stateDragging) interaction() {}
func (stateResizing) interaction() {}
func (statePanning) interaction()  {}

// Key identifies keyboard input the controller reacts to.
type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeyEscape     Key = "Escape"
	KeyZ          Key = "z"
)

// Modifiers carries the modifier keys active during a key press. CtrlCmd
// folds Ctrl and Cmd together so shortcuts behave the same on macOS.
type Modifiers struct {
	Shift   bool
	CtrlCmd bool
}
