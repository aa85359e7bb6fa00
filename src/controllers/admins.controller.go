package controllers

import (
	"dcp/src/db"
	"dcp/src/models"
	"dcp/src/types"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func AdminsList(ctx *gin.Context) (admins []models.AdminUser, status int, err error) {
	db := db.GetDb()
	if err := db.
		Model(&models.AdminUser{}).
		Order("created_at asc").
		Find(&admins).
		Error; err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return admins, http.StatusOK, nil
}

func AdminsCreate(ctx *gin.Context) (admin *models.AdminUser, status int, err error) {
	var body types.CreateAdminRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	db := db.GetDb()
	var count int64
	if err := db.
		Model(&models.AdminUser{}).
		Where(&models.AdminUser{Email: body.Email}).
		Count(&count).
		Error; err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if count > 0 {
		return nil, http.StatusConflict, errors.New("a user with that email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	newAdmin := models.AdminUser{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
	}
	if err := db.Create(&newAdmin).Error; err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &newAdmin, http.StatusCreated, nil
}

// AdminsDelete removes an admin account. The last remaining admin cannot be
// deleted or the dashboard would lock everyone out.
func AdminsDelete(ctx *gin.Context) (status int, err error) {
	id := ctx.Param("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var admin models.AdminUser
		if err := tx.Where(&models.AdminUser{ID: id}).First(&admin).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.AdminUser{}).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return errors.New("cannot delete the last admin user")
		}
		return tx.Delete(&admin).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return http.StatusNotFound, err
		}
		if err.Error() == "cannot delete the last admin user" {
			return http.StatusConflict, err
		}
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}
