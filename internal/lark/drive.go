package lark

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/wikibinder/internal/model"
)

// ExportFileExtension is the only export format wikibinder requests.
const ExportFileExtension = "pdf"

// ExportResult is the status of an export task.
type ExportResult struct {
	FileExtension string `json:"file_extension"`
	Type          string `json:"type"`
	FileName      string `json:"file_name"`
	FileToken     string `json:"file_token"`
	FileSize      int64  `json:"file_size"`
	JobErrorMsg   string `json:"job_error_msg"`
	JobStatus     int    `json:"job_status"`
}

// JobResult classifies the raw status into a model.JobResult.
func (r *ExportResult) JobResult() model.JobResult {
	return model.ClassifyJobStatus(r.JobStatus, r.FileToken, r.JobErrorMsg)
}

type createExportRequest struct {
	FileExtension string `json:"file_extension"`
	Token         string `json:"token"`
	Type          string `json:"type"`
}

// SubmitExport creates a PDF export task for a document and returns the
// ticket used to poll it.
func (c *Client) SubmitExport(ctx context.Context, objToken string, objType model.ObjectType) (string, error) {
	req := createExportRequest{
		FileExtension: ExportFileExtension,
		Token:         objToken,
		Type:          objType.String(),
	}

	var data struct {
		Ticket string `json:"ticket"`
	}
	if err := c.call(ctx, "create export task", http.MethodPost, "/open-apis/drive/v1/export_tasks", nil, req, &data); err != nil {
		return "", err
	}
	if data.Ticket == "" {
		return "", &model.APIError{Op: "create export task", Msg: ErrEmptyTicket.Error()}
	}
	return data.Ticket, nil
}

// PollExport queries the status of an export task. objToken is the token
// of the exported document.
func (c *Client) PollExport(ctx context.Context, ticket, objToken string) (*ExportResult, error) {
	query := url.Values{}
	query.Set("token", objToken)

	// job_status is decoded through a pointer: 0 means success, so an
	// absent status must not read as one.
	var data struct {
		Result *struct {
			ExportResult
			JobStatus *int `json:"job_status"`
		} `json:"result"`
	}
	const op = "get export task"
	path := "/open-apis/drive/v1/export_tasks/" + url.PathEscape(ticket)
	if err := c.call(ctx, op, http.MethodGet, path, query, nil, &data); err != nil {
		return nil, err
	}
	if data.Result == nil || data.Result.JobStatus == nil {
		return nil, &model.APIError{Op: op, Msg: ErrMissingJobStatus.Error()}
	}

	res := data.Result.ExportResult
	res.JobStatus = *data.Result.JobStatus
	return &res, nil
}

// DownloadExport streams the exported file into w and returns the number
// of bytes written. A failure after some bytes were written leaves w
// partially written; callers retrying the download must reset w.
func (c *Client) DownloadExport(ctx context.Context, fileToken string, w io.Writer) (int64, error) {
	const op = "download export file"

	path := "/open-apis/drive/v1/export_tasks/file/" + url.PathEscape(fileToken) + "/download"
	resp, err := c.send(ctx, op, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := c.decode(op, resp, nil); err != nil {
			return 0, err
		}
		return 0, &model.APIError{Op: op, Code: resp.StatusCode, Msg: "response carried no file content"}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		return n, &model.TransportError{Op: op, Err: fmt.Errorf("read body after %d bytes: %w", n, err)}
	}
	return n, nil
}
