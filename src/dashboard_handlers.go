package main

import (
	"dcp/src/config"
	"dcp/src/db"
	"dcp/src/models"
	"dcp/src/types"
	"dcp/src/utils"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func dashboardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/admin/dashboard", func(ctx *gin.Context) {
			if campaignID := ctx.Query("campaignId"); campaignID != "" {
				stats, err := utils.GetCampaignStats(campaignID)
				if err != nil {
					if errors.Is(err, utils.ErrCampaignNotFound) {
						ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
						return
					}
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"data": stats})
				return
			}
			stats, err := utils.GetPortfolioStats()
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			recent, err := utils.GetRecentDonations(5)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":             stats,
				"recent_donations": recent,
			})
		}).
		GET("/admin/donations", func(ctx *gin.Context) {
			g := db.GetDb()
			now := time.Now()
			since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
				AddDate(0, -(config.CHART_WINDOW_MONTHS - 1), 0)
			query := g.
				Preload("Campaign").
				Where("created_at >= ?", since).
				Order("created_at desc")
			if campaignID := ctx.Query("campaignId"); campaignID != "" {
				query = query.Where("campaign_id = ?", campaignID)
			}
			var donations []models.Donation
			if err := query.
				Find(&donations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			chart := utils.MonthlySeries(donations, now, config.CHART_WINDOW_MONTHS)
			ctx.JSON(http.StatusOK, gin.H{"data": donations, "chart": chart})
		}).
		GET("/admin/campaigns", func(ctx *gin.Context) {
			g := db.GetDb()
			var campaigns []types.CampaignBrief
			if err := g.
				Model(&models.Campaign{}).
				Select("id", "title").
				Order("created_at desc").
				Find(&campaigns).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": campaigns})
		})
	return g
}
