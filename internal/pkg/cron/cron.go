package cron

import (
	"context"
	"log"
	"time"

	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/pkg/billing"
	"github.com/qs3c/ipl_server/internal/pkg/clock"
)

// monthStartDelay 每月 1 日零点后延迟执行，避开跨月瞬间
const monthStartDelay = 5 * time.Minute

// Generator 月度账单生成
type Generator interface {
	GenerateMonthlyFees(ctx context.Context, month string, rates billing.RateTable) (*dto.GenerateFeesResponse, error)
}

type Service struct {
	generator Generator
	clock     clock.Clock
	rates     billing.RateTable
	stopChan  chan struct{}
}

func NewService(generator Generator, clk clock.Clock, rates billing.RateTable) *Service {
	return &Service{
		generator: generator,
		clock:     clk,
		rates:     rates,
		stopChan:  make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runMonthlyGeneration()
	log.Println("Cron service started (monthly fee generation)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runMonthlyGeneration 每月 1 日生成当月账单
func (s *Service) runMonthlyGeneration() {
	now := s.clock.Now()
	timer := time.NewTimer(NextRun(now).Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunNow(context.Background()); err != nil {
				log.Printf("Monthly fee generation failed: %v", err)
			}
			now = s.clock.Now()
			timer.Reset(NextRun(now).Sub(now))
		}
	}
}

// NextRun 下个月 1 日 00:05（参考时区）
func NextRun(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	return first.Add(monthStartDelay)
}

// RunNow 立即生成当月账单，已有账单的住户会被跳过
func (s *Service) RunNow(ctx context.Context) (*dto.GenerateFeesResponse, error) {
	month := billing.MonthOf(s.clock.Now())
	log.Printf("Generating fees for %s...", month)

	resp, err := s.generator.GenerateMonthlyFees(ctx, month, s.rates)
	if err != nil {
		return nil, err
	}
	log.Printf("Monthly fee generation completed: %s", resp.Message)
	return resp, nil
}
