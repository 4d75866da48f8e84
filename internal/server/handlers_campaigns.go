package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/jonathan/buyside/internal/campaign"
	"github.com/jonathan/buyside/internal/pipeline"
	"github.com/jonathan/buyside/internal/types"
)

// maxDraftBytes bounds the request body, base64 image included.
const maxDraftBytes = 16 << 20

// CreateCampaignRequest is the JSON body of POST /campaigns.
type CreateCampaignRequest struct {
	Name          string `json:"name"`
	Budget        *int   `json:"budget,omitempty"`
	AdTextContent string `json:"ad_text_content"`
	// AdImage is base64, optionally as a data URL ("data:image/png;base64,...").
	AdImage string `json:"ad_image,omitempty"`
	// AdImageExtension overrides the extension derived from the data URL or payload.
	AdImageExtension string `json:"ad_image_extension,omitempty"`
}

// ToDraft converts the request into a draft. A missing budget takes the draft default.
func (req *CreateCampaignRequest) ToDraft() (types.CampaignDraft, error) {
	draft := types.NewCampaignDraft()
	draft.Name = req.Name
	draft.AdTextContent = req.AdTextContent
	if req.Budget != nil {
		draft.Budget = *req.Budget
	}

	if strings.TrimSpace(req.AdImage) == "" {
		return draft, nil
	}

	image, err := decodeImage(req.AdImage, req.AdImageExtension)
	if err != nil {
		return types.CampaignDraft{}, err
	}
	draft.Image = image
	return draft, nil
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(payload, ext string) (*types.ImageAttachment, error) {
	payload = strings.TrimSpace(payload)

	var declaredType string
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, &ErrValidation{Field: "ad_image", Message: "unsupported data URL"}
		}
		declaredType = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &ErrValidation{Field: "ad_image", Message: "invalid base64"}
	}
	if len(data) == 0 {
		return nil, nil
	}

	if ext == "" && declaredType != "" {
		if mt := mimetype.Lookup(declaredType); mt != nil {
			ext = mt.Extension()
		}
	}
	return &types.ImageAttachment{Data: data, Extension: strings.TrimPrefix(ext, ".")}, nil
}

// handleListCampaigns returns campaigns newest first, filtered by ?q=.
func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.listCampaigns(r)
	if err != nil {
		s.logger.Error("failed to list campaigns", zap.Error(err))
		writeError(w, HTTPStatus(err), clientMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, campaign.Filter(list, r.URL.Query().Get("q")))
}

// handleCampaignStats returns the dashboard summary.
func (s *Server) handleCampaignStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.listCampaigns(r)
	if err != nil {
		s.logger.Error("failed to list campaigns", zap.Error(err))
		writeError(w, HTTPStatus(err), clientMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, campaign.Summarize(list))
}

func (s *Server) listCampaigns(r *http.Request) ([]types.Campaign, error) {
	if s.campaigns == nil {
		return nil, &ErrUnavailable{Component: "campaign list"}
	}
	return s.campaigns.List(r.Context())
}

// decodeDraft reads and converts the request body, writing a 400 on failure.
func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request) (types.CampaignDraft, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDraftBytes)

	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return types.CampaignDraft{}, false
	}

	draft, err := req.ToDraft()
	if err != nil {
		writeError(w, HTTPStatus(err), err.Error())
		return types.CampaignDraft{}, false
	}
	if err := draft.Validate(); err != nil {
		writeError(w, HTTPStatus(err), err.Error())
		return types.CampaignDraft{}, false
	}
	return draft, true
}

// handleCreateCampaign runs the creation pipeline and returns the campaign.
func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	if s.submitter == nil {
		writeError(w, http.StatusServiceUnavailable, "Campaign creation is unavailable.")
		return
	}

	draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	created, err := s.submitter.SubmitWithProgress(r.Context(), draft, nil)
	if err != nil {
		s.logger.Error("campaign creation failed", zap.Error(err))
		writeError(w, HTTPStatus(err), clientMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleCreateCampaignStream runs the creation pipeline, streaming progress as SSE.
func (s *Server) handleCreateCampaignStream(w http.ResponseWriter, r *http.Request) {
	if s.submitter == nil {
		writeError(w, http.StatusServiceUnavailable, "Campaign creation is unavailable.")
		return
	}

	draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := s.submitter.SubmitWithProgress(r.Context(), draft, func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(EventProgress, event); err != nil {
			s.logger.Warn("failed to write SSE event", zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Error("campaign creation failed", zap.Error(err))
		_ = sse.WriteError(clientMessage(err))
		return
	}

	if err := sse.WriteComplete(created); err != nil {
		s.logger.Warn("failed to write SSE completion", zap.Error(err))
	}
}
