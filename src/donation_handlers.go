package main

import (
	"dcp/src/types"
	"dcp/src/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func donationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/donate", func(ctx *gin.Context) {
			var body types.CreateDonationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			redirectURL, reference, err := utils.CreateDonation(ctx, &body)
			if err != nil {
				switch {
				case errors.Is(err, utils.ErrAmountBelowMinimum):
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				case errors.Is(err, utils.ErrCampaignNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				case errors.Is(err, utils.ErrGatewayUnavailable):
					ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				default:
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"authorization_url": redirectURL,
				"reference":         reference,
			})
		}).
		GET("/verify", func(ctx *gin.Context) {
			reference := ctx.Query("reference")
			if reference == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
				return
			}
			donation, succeeded, err := utils.VerifyDonation(ctx, reference)
			if err != nil {
				switch {
				case errors.Is(err, utils.ErrReferenceNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				case errors.Is(err, utils.ErrGatewayUnavailable):
					ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				default:
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				}
				return
			}
			if !succeeded {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Payment not successful", "donation": donation})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "donation": donation})
		})
	return g
}
