package main

import (
	"context"
	"dcp/src/db"
	"dcp/src/lib"
	"dcp/src/models"
	"dcp/src/types"
	"dcp/src/utils"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const campaignsCacheKey = "campaigns:groups"

type campaignGroups struct {
	Active    []models.Campaign `json:"active"`
	Upcoming  []models.Campaign `json:"upcoming"`
	Completed []models.Campaign `json:"completed"`
	Featured  *models.Campaign  `json:"featured,omitempty"`
}

func cacheCampaignGroups() (*campaignGroups, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		val := rd.JSONGet(context.Background(), campaignsCacheKey).Val()
		if val != "" {
			var cached campaignGroups
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		}
	}
	g := db.GetDb()
	var campaigns []models.Campaign
	if err := g.Order("start_date asc").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	active, upcoming, completed := utils.GroupCampaigns(campaigns, time.Now())
	groups := campaignGroups{
		Active:    active,
		Upcoming:  upcoming,
		Completed: completed,
	}
	for i := range campaigns {
		if campaigns[i].IsFeatured {
			groups.Featured = &campaigns[i]
			break
		}
	}
	if rd != nil {
		rd.JSONSet(context.Background(), campaignsCacheKey, "$", groups)
		rd.Expire(context.Background(), campaignsCacheKey, time.Minute)
	}
	return &groups, nil
}

func invalidateCampaignsCache() {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Del(context.Background(), campaignsCacheKey).Err(); err != nil {
		log.Printf("[cache] invalidation failed: %s\n", err.Error())
	}
}

func campaignPublicHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/campaigns", func(ctx *gin.Context) {
			groups, err := cacheCampaignGroups()
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": groups})
		}).
		GET("/campaigns/:id", func(ctx *gin.Context) {
			var params types.CampaignURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			g := db.GetDb()
			var campaign models.Campaign
			if err := g.Where("id = ?", params.ID).First(&campaign).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": utils.ErrCampaignNotFound.Error()})
				return
			}
			raised, count, err := utils.CampaignRaised(g, campaign.ID)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			stats := utils.ComputeCampaignStats(&campaign, raised, count)
			ctx.JSON(http.StatusOK, gin.H{"data": campaign, "stats": stats})
		})
	return g
}

func campaignAdminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/campaigns", func(ctx *gin.Context) {
			var body types.CreateCampaignRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			campaign, err := utils.CreateCampaign(&body)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invalidateCampaignsCache()
			ctx.JSON(http.StatusCreated, gin.H{"data": campaign})
		}).
		PATCH("/campaigns/:id", func(ctx *gin.Context) {
			var params types.CampaignURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateCampaignRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			campaign, err := utils.UpdateCampaign(params.ID, &body)
			if err != nil {
				if errors.Is(err, utils.ErrCampaignNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invalidateCampaignsCache()
			ctx.JSON(http.StatusOK, gin.H{"data": campaign})
		}).
		DELETE("/campaigns/:id", func(ctx *gin.Context) {
			var params types.CampaignURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if err := utils.DeleteCampaign(params.ID); err != nil {
				switch {
				case errors.Is(err, utils.ErrCampaignNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				case errors.Is(err, utils.ErrCampaignHasDonations):
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				default:
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				}
				return
			}
			invalidateCampaignsCache()
			ctx.Status(http.StatusNoContent)
		})
	return g
}
