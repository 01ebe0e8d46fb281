package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"jobboard-billing/internal/config"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
	pg "jobboard-billing/internal/infra/db/postgres"
)

func intp(v int) *int { return &v }

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)

	// If plans already exist, do nothing
	plans, err := planRepo.ListActive(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (%s, %d XAF)\n", p.Name, p.Slug, p.AmountMinor)
		}
		return
	}

	// Sample catalog for testing the payment flow.
	seed := []model.PricingPlan{
		{Slug: "seeker-monthly", Name: "Job Seeker Monthly", Role: model.PlanRoleJobSeeker, PlanType: model.PlanTypeSubscription, AmountMinor: 2_000, DurationDays: intp(30)},
		{Slug: "recruiter-monthly", Name: "Recruiter Monthly", Role: model.PlanRoleRecruiter, PlanType: model.PlanTypeSubscription, AmountMinor: 10_000, DurationDays: intp(30)},
		{Slug: "recruiter-verification", Name: "Recruiter Verification", Role: model.PlanRoleRecruiter, PlanType: model.PlanTypeOneTime, AmountMinor: 5_000},
		{Slug: "job-standard", Name: "Standard Job Posting", Role: model.PlanRoleRecruiter, PlanType: model.PlanTypePerJob, AmountMinor: 3_000},
		{Slug: "job-premium", Name: "Premium Job Posting", Role: model.PlanRoleRecruiter, PlanType: model.PlanTypePerJob, AmountMinor: 7_500},
		{Slug: "addon-featured", Name: "Featured Placement", Role: model.PlanRoleRecruiter, PlanType: model.PlanTypePerJob, AmountMinor: 2_000},
		{Slug: "addon-social-boost", Name: "Social Media Boost", Role: model.PlanRoleRecruiter, PlanType: model.PlanTypePerJob, AmountMinor: 1_500},
	}

	for _, s := range seed {
		s.ID = uuid.NewString()
		s.IsActive = true
		s.CreatedAt = time.Now()
		if err := planRepo.Save(ctx, repository.NoTX, &s); err != nil {
			log.Fatalf("save plan %q: %v", s.Slug, err)
		}
		fmt.Printf("seeded: %s (%s, %d XAF)\n", s.Name, s.Slug, s.AmountMinor)
	}

	fmt.Println("Seeding complete.")
}
