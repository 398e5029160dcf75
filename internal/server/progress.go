// ABOUTME: WebSocket endpoint streaming conversion progress
// ABOUTME: Sends JSON progress messages, then the WAV file as one binary message
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

const writeDeadline = 10 * time.Second

// Message types sent on the progress socket
const (
	MessageProgress = "progress"
	MessageComplete = "complete"
	MessageError    = "error"
)

// ProgressMessage is the JSON text frame sent to progress clients
type ProgressMessage struct {
	Type     string `json:"type"`
	JobID    string `json:"job_id,omitempty"`
	Percent  int    `json:"percent"`
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Size     int    `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
}

// socketProgress writes progress messages to the connection
type socketProgress struct {
	conn *websocket.Conn
	err  error
}

func (p *socketProgress) Progress(percent int, text string) {
	p.send(ProgressMessage{Type: MessageProgress, Percent: percent, Text: text})
}

func (p *socketProgress) send(msg ProgressMessage) {
	if p.err != nil {
		return
	}
	p.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := p.conn.WriteJSON(msg); err != nil {
		log.Printf("Error writing progress message: %v", err)
		p.err = err
	}
}

// handleProgress runs a demo conversion, pacing steps for display
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	videoID, err := videoIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, convert.FallbackMessage(err))
		return
	}
	title := r.URL.Query().Get("title")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("New progress connection from %s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A read error means the client went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	progress := &socketProgress{conn: conn}
	job, file, err := s.runJob(ctx, s.paced, kindProgress, title, videoID, progress,
		func(ctx context.Context, c *convert.Converter, jobID string) (*convert.Result, error) {
			return c.DemoJob(ctx, jobID, title)
		})
	if err != nil {
		progress.send(ProgressMessage{Type: MessageError, JobID: job.ID, Error: convert.FallbackMessage(err)})
		closeSocket(conn)
		return
	}

	progress.send(ProgressMessage{
		Type:     MessageComplete,
		JobID:    job.ID,
		Percent:  100,
		FileName: file.Name,
		Size:     len(file.Data),
	})
	if progress.err != nil {
		return
	}

	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := conn.WriteMessage(websocket.BinaryMessage, file.Data); err != nil {
		log.Printf("Error writing file message: %v", err)
		return
	}

	closeSocket(conn)
}

func closeSocket(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
