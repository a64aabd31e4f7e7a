// Copyright 2025 Zintix Labs
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

package dto

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/matchlab/sdk/board"
)

func TestDecodeSwapRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/v1/swap?uid=u1&level=demo&lid=7&from_col=1&from_row=2&to_col=1&to_row=3&session=4", nil)
	req, err := DecodeSwapRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.UID != "u1" || req.LevelName != "demo" || req.LevelId != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.FromCol != 1 || req.FromRow != 2 || req.ToCol != 1 || req.ToRow != 3 || req.Session != 4 {
		t.Fatalf("unexpected coordinates: %+v", req)
	}
}

func TestDecodeSwapRequestPOST(t *testing.T) {
	payload := map[string]any{
		"uid":      "u2",
		"level":    "demo",
		"lid":      9,
		"from_col": 0,
		"from_row": 0,
		"to_col":   0,
		"to_row":   1,
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/v1/swap", bytes.NewReader(data))
	req, err := DecodeSwapRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.LevelId != 9 || req.ToRow != 1 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeSwapRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"lid":1,"level":"demo","from_col":0,"unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/v1/swap", bytes.NewReader(data))
	if _, err := DecodeSwapRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestSwapRequestParseStartState(t *testing.T) {
	req := &SwapRequest{LevelName: "demo", LevelId: 1}
	mreq, err := req.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mreq.StartState != nil {
		t.Fatalf("new move must not carry start state")
	}

	req.StartState = &StartState{StartCoreSnapB64U: "AQID"}
	mreq, err = req.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(mreq.StartState.StartCoreSnap, []byte{1, 2, 3}) {
		t.Fatalf("unexpected snapshot bytes: %v", mreq.StartState.StartCoreSnap)
	}

	req.StartState = &StartState{StartCoreSnapB64U: "!!"}
	if _, err := req.Parse(); err == nil {
		t.Fatalf("expected error for invalid base64url")
	}
}

func TestPieceEncodingRoundtrip(t *testing.T) {
	pieces := []board.Piece{
		board.EmptyPiece,
		board.NormalPiece(0),
		board.NormalPiece(4),
		{Kind: board.KindRocketH, Color: 2},
		{Kind: board.KindColorBomb, Color: board.NoColor},
	}
	for _, p := range pieces {
		got := DecodePiece(EncodePiece(p))
		if p.Kind == board.KindNone {
			if got != board.EmptyPiece {
				t.Fatalf("empty piece roundtrip failed: %v", got)
			}
			continue
		}
		if got != p {
			t.Fatalf("piece roundtrip failed: %v vs %v", got, p)
		}
	}
}
