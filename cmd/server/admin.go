package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

type ruleView struct {
	Domain    string `json:"domain"`
	KeyType   string `json:"key_type"`
	Limit     string `json:"limit"`
	Algorithm string `json:"algorithm"`
}

func listRulesHandler(registry *ratelimiter.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		rules := registry.List()
		views := make([]ruleView, 0, len(rules))
		for _, rule := range rules {
			views = append(views, ruleView{
				Domain:    rule.Domain,
				KeyType:   string(rule.KeyType),
				Limit:     fmt.Sprintf("%d per %s", rule.Quota, rule.WindowUnit),
				Algorithm: string(rule.Algorithm),
			})
		}
		c.JSON(http.StatusOK, views)
	}
}

type addRuleRequest struct {
	Domain    string `json:"domain" binding:"required"`
	KeyType   string `json:"key_type" binding:"required"`
	Quota     int64  `json:"quota" binding:"required"`
	Unit      string `json:"unit" binding:"required"`
	Algorithm string `json:"algorithm" binding:"required"`
}

func addRuleHandler(registry *ratelimiter.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addRuleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rule := ratelimiter.Rule{
			Domain:     req.Domain,
			KeyType:    ratelimiter.KeyType(req.KeyType),
			Quota:      req.Quota,
			WindowUnit: ratelimiter.TimeUnit(req.Unit),
			Algorithm:  ratelimiter.Algorithm(req.Algorithm),
		}

		if err := registry.Add(rule); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, ruleView{
			Domain:    rule.Domain,
			KeyType:   string(rule.KeyType),
			Limit:     fmt.Sprintf("%d per %s", rule.Quota, rule.WindowUnit),
			Algorithm: string(rule.Algorithm),
		})
	}
}
