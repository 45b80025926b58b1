package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/mutation"
)

// SubscriptionHandler exposes subscription writes. Subscriptions are read
// through the study class roster.
type SubscriptionHandler struct {
	mutations mutator
}

// NewSubscriptionHandler constructs SubscriptionHandler.
func NewSubscriptionHandler(mutations mutator) *SubscriptionHandler {
	return &SubscriptionHandler{mutations: mutations}
}

// Create godoc
// @Summary Subscribe a student to a study class
// @Description The subscription date defaults to the submission time.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubscriptionRequest true "Subscription payload"
// @Success 201 {object} response.Envelope
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	mutate(c, h.mutations, mutation.CreateSubscription, req, http.StatusCreated)
}

// Delete godoc
// @Summary Remove a subscription
// @Tags Subscriptions
// @Param id path int true "Subscription ID"
// @Param studyClassId query int false "Study class the subscription belonged to"
// @Success 204
// @Router /subscriptions/{id} [delete]
func (h *SubscriptionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	classID, ok := queryID(c, "studyClassId")
	if !ok {
		return
	}
	mutate(c, h.mutations, mutation.DeleteSubscription, dto.DeleteSubscriptionRequest{ID: id, StudyClassID: classID}, http.StatusNoContent)
}
