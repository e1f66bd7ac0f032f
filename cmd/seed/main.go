package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindwell/counseling-booking/internal/booking"
	"github.com/mindwell/counseling-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedRules(context.Background(), pool); err != nil {
		log.Fatalf("seed schedule rules: %v", err)
	}
	if err := seedAnnouncements(context.Background(), pool, 3); err != nil {
		log.Fatalf("seed announcements: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, 40); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

// seedRules installs the default weekly template: Monday through Friday,
// hourly slots from 10:00 to 17:00, both modes allowed.
func seedRules(ctx context.Context, pool *pgxpool.Pool) error {
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

	count := 0
	for _, wd := range weekdays {
		for hour := 10; hour <= 17; hour++ {
			clock := fmt.Sprintf("%02d:00", hour)
			_, err := pool.Exec(ctx, `
				INSERT INTO schedule_slot_rules (weekday, time_of_day, online_allowed, offline_allowed, active, created_at, updated_at)
				VALUES ($1, $2, TRUE, TRUE, TRUE, now(), now())
				ON CONFLICT (weekday, time_of_day) DO NOTHING
			`, int16(wd), clock)
			if err != nil {
				return err
			}
			count++
		}
	}

	log.Printf("seeded %d schedule rules", count)
	return nil
}

func seedAnnouncements(ctx context.Context, pool *pgxpool.Pool, count int) error {
	for i := 0; i < count; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO announcements (title, body, published, created_at, updated_at)
			VALUES ($1, $2, TRUE, now(), now())
		`, gofakeit.Sentence(5), gofakeit.Paragraph(1, 3, 12, " "))
		if err != nil {
			return err
		}
	}

	log.Printf("seeded %d announcements", count)
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, count int) error {
	topics := []string{
		"Anxiety",
		"Depression",
		"Relationships",
		"Work stress",
		"Family",
		"Sleep",
		"Self-esteem",
	}
	statuses := []booking.AppointmentStatus{
		booking.StatusPending,
		booking.StatusPendingPayment,
		booking.StatusConfirmed,
		booking.StatusCancelled,
		booking.StatusCompleted,
	}

	inserted := 0
	for i := 0; i < count; i++ {
		// Land on a weekday within the next month.
		date := time.Now().AddDate(0, 0, gofakeit.Number(1, 28))
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		clock := fmt.Sprintf("%02d:00", gofakeit.Number(10, 17))

		mode := booking.ModeOnline
		if gofakeit.Bool() {
			mode = booking.ModeOffline
		}
		ctype := booking.TypeRegular
		if gofakeit.Number(0, 4) == 0 {
			ctype = booking.TypeWelfare
		}

		topic := topics[gofakeit.Number(0, len(topics)-1)]
		phone := gofakeit.Phone()

		// The partial unique index rejects duplicate live slots; skip those.
		_, err := pool.Exec(ctx, `
			INSERT INTO appointments (id, calendar_date, time_of_day, consultation_type, consultation_mode,
				status, client_name, contact_email, contact_phone, topic, note, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		`, uuid.New(), date.Format("2006-01-02"), clock, ctype, mode,
			statuses[gofakeit.Number(0, len(statuses)-1)],
			gofakeit.Name(), gofakeit.Email(), phone, topic, gofakeit.Sentence(8))
		if err != nil {
			log.Printf("skipping appointment %d: %v", i, err)
			continue
		}
		inserted++
	}

	log.Printf("seeded %d appointments", inserted)
	return nil
}
