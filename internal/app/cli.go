package app

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mrseck/AQ54-fe/internal/identity/gateway"
	sensordomain "github.com/mrseck/AQ54-fe/internal/sensor/domain"
	"github.com/mrseck/AQ54-fe/internal/session/domain"
)

const usage = `usage: dashboard <command> [flags]

commands:
  login        sign in with email and password
  logout       sign out and clear the stored session
  whoami       show the current session
  register     create an account (self-registration)
  create-user  create an account (admin only)
  sensor       query aggregated sensor telemetry
  overview     show platform counters (admin only)
  stations     list known stations

running with no command resolves the landing route for the current session.
`

// Run dispatches one CLI invocation.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.Index(ctx)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.Login(ctx, *email, *password)
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.Whoami(ctx)
	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		firstName := fs.String("first-name", "", "first name")
		lastName := fs.String("last-name", "", "last name")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.Register(ctx, gateway.RegisterProfile{
			Username:  *username,
			Email:     *email,
			Password:  *password,
			FirstName: *firstName,
			LastName:  *lastName,
		})
	case "create-user":
		fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		role := fs.String("role", string(domain.RoleUser), "role (USER or ADMIN)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		parsed, err := domain.ParseRole(*role)
		if err != nil {
			return err
		}
		return a.CreateUser(ctx, gateway.CreateUserProfile{
			Username: *username,
			Email:    *email,
			Password: *password,
			Role:     parsed,
		})
	case "sensor":
		fs := flag.NewFlagSet("sensor", flag.ContinueOnError)
		station := fs.String("station", defaultStation(a.stations), "station id")
		startDate := fs.String("start-date", time.Now().AddDate(0, 0, -7).Format("2006-01-02"), "range start date (YYYY-MM-DD)")
		startTime := fs.String("start-time", "00:00", "range start time of day (HH:MM)")
		endDate := fs.String("end-date", time.Now().Format("2006-01-02"), "range end date (YYYY-MM-DD)")
		endTime := fs.String("end-time", "23:59", "range end time of day (HH:MM)")
		granularity := fs.String("granularity", string(sensordomain.GranularityDay), "aggregation granularity (hour or day)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.Sensor(ctx, *station, *startDate, *startTime, *endDate, *endTime, *granularity)
	case "overview":
		return a.Overview(ctx)
	case "stations":
		a.Stations()
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func defaultStation(stations []string) string {
	if len(stations) > 0 {
		return stations[0]
	}
	return sensordomain.DefaultStations[0]
}
