package main

import (
	"dcp/src/controllers"
	"dcp/src/db"
	"dcp/src/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

func adminUserHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/admin/users", func(ctx *gin.Context) {
			admins, status, err := controllers.AdminsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": admins})
		}).
		POST("/admin/users", func(ctx *gin.Context) {
			admin, status, err := controllers.AdminsCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": admin})
		}).
		DELETE("/admin/users/:id", func(ctx *gin.Context) {
			status, err := controllers.AdminsDelete(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/admin/subscribers", func(ctx *gin.Context) {
			var subscribers []models.Subscriber
			db := db.GetDb()
			if err := db.
				Order("created_at desc").
				Find(&subscribers).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": subscribers})
		}).
		DELETE("/admin/subscribers/:id", func(ctx *gin.Context) {
			id := ctx.Param("id")
			db := db.GetDb()
			res := db.Where("id = ?", id).Delete(&models.Subscriber{})
			if res.Error != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected < 1 {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
