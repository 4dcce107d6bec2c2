package grpc_test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	admingrpc "github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/grpc"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/repository"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	testSecret            = "test-secret"
	listUsersQuery        = `(?s)SELECT id, email, name FROM users`
	listStaffQuery        = `(?s)SELECT id, email, name FROM staff`
	listAdminQuery        = `(?s)SELECT id, email, name FROM admin`
	updateStaffEmailQuery = `(?s)UPDATE staff SET email = \? WHERE id = \?`
	usersEmailExistsQuery = `(?s)SELECT id FROM users WHERE email = \? LIMIT 1`
	staffEmailExistsQuery = `(?s)SELECT id FROM staff WHERE email = \? LIMIT 1`
	adminEmailExistsQuery = `(?s)SELECT id FROM admin WHERE email = \? LIMIT 1`
	staffEmailExceptQuery = `(?s)SELECT id FROM staff WHERE email = \? AND id != \? LIMIT 1`
)

var identityColumns = []string{"id", "email", "name"}

type testServer struct {
	client *admingrpc.EmailHygieneClient
	health healthpb.HealthClient
	mock   sqlmock.Sqlmock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	hygiene := service.NewEmailHygieneService(repository.NewIdentityRepository(db), service.Options{})
	sessions := service.NewSessionService(testSecret, "admin")

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.UnaryInterceptor(admingrpc.AdminAuthUnaryInterceptor(sessions)))
	admingrpc.RegisterEmailHygieneServer(server, admingrpc.NewAdminServer(hygiene))
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	go func() {
		_ = server.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
		_ = db.Close()
	})

	return &testServer{
		client: admingrpc.NewEmailHygieneClient(conn),
		health: healthpb.NewHealthClient(conn),
		mock:   mock,
	}
}

func withSession(t *testing.T, role string) context.Context {
	t.Helper()

	claims := &service.SessionClaims{
		UserID: 1,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestAdminAuth_RejectsMissingAndNonAdminSessions(t *testing.T) {
	ts := newTestServer(t)

	for _, ctx := range []context.Context{context.Background(), withSession(t, "siswa")} {
		_, err := ts.client.ListInvalidEmails(ctx, &emptypb.Empty{})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	}

	if err := ts.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("store touched before authorization: %v", err)
	}
}

func TestHealthCheckIsOpen(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.GetStatus())
	}
}

func TestListInvalidEmails(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(listUsersQuery).WillReturnRows(sqlmock.NewRows(identityColumns).
		AddRow(uint64(1), "bad-email", "Ani"))
	ts.mock.ExpectQuery(listStaffQuery).WillReturnRows(sqlmock.NewRows(identityColumns))
	ts.mock.ExpectQuery(listAdminQuery).WillReturnRows(sqlmock.NewRows(identityColumns))

	resp, err := ts.client.ListInvalidEmails(withSession(t, "admin"), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := resp.GetFields()["count"].GetNumberValue(); got != 1 {
		t.Fatalf("expected count 1, got %v", got)
	}
	items := resp.GetFields()["invalidEmails"].GetListValue().GetValues()
	if len(items) != 1 || items[0].GetStructValue().GetFields()["email"].GetStringValue() != "bad-email" {
		t.Fatalf("unexpected items: %v", items)
	}

	if err := ts.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFixEmail(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(staffEmailExceptQuery).WithArgs("guru@sekolah.sch.id", uint64(3)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	ts.mock.ExpectQuery(usersEmailExistsQuery).WithArgs("guru@sekolah.sch.id").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	ts.mock.ExpectQuery(staffEmailExistsQuery).WithArgs("guru@sekolah.sch.id").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	ts.mock.ExpectQuery(adminEmailExistsQuery).WithArgs("guru@sekolah.sch.id").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	ts.mock.ExpectExec(updateStaffEmailQuery).
		WithArgs("guru@sekolah.sch.id", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	in, err := structpb.NewStruct(map[string]interface{}{
		"userId":   3,
		"newEmail": "guru@sekolah.sch.id",
		"table":    "staff",
	})
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	resp, err := ts.client.FixEmail(withSession(t, "admin"), in)
	if err != nil {
		t.Fatalf("fix failed: %v", err)
	}
	fields := resp.GetFields()
	if fields["table"].GetStringValue() != "staff" || fields["userId"].GetNumberValue() != 3 {
		t.Fatalf("unexpected response: %v", resp)
	}

	if err := ts.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFixEmail_InvalidArgument(t *testing.T) {
	ts := newTestServer(t)

	in, _ := structpb.NewStruct(map[string]interface{}{"userId": "abc", "newEmail": "a@b.com"})
	if _, err := ts.client.FixEmail(withSession(t, "admin"), in); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for bad userId, got %v", err)
	}

	in, _ = structpb.NewStruct(map[string]interface{}{"userId": 1, "newEmail": "nope"})
	if _, err := ts.client.FixEmail(withSession(t, "admin"), in); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for bad email, got %v", err)
	}
}

func TestFixEmail_InvalidArgumentCarriesEveryField(t *testing.T) {
	ts := newTestServer(t)

	in, _ := structpb.NewStruct(map[string]interface{}{"userId": -5, "newEmail": "nope", "table": "books"})
	_, err := ts.client.FixEmail(withSession(t, "admin"), in)
	st, _ := status.FromError(err)
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	fields := map[string]bool{}
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range br.GetFieldViolations() {
			fields[v.GetField()] = true
		}
	}
	if !fields["userId"] || !fields["newEmail"] || !fields["table"] {
		t.Fatalf("expected violations for every field, got %v", fields)
	}

	if err := ts.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements: %v", err)
	}
}

func TestFixEmail_AlreadyExists(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(staffEmailExceptQuery).
		WithArgs("taken@mail.com", uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(4)))

	in, _ := structpb.NewStruct(map[string]interface{}{"userId": 3, "newEmail": "taken@mail.com", "table": "staff"})
	if _, err := ts.client.FixEmail(withSession(t, "admin"), in); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
}

type flakyPinger struct {
	fail atomic.Bool
}

func (p *flakyPinger) PingContext(context.Context) error {
	if p.fail.Load() {
		return context.DeadlineExceeded
	}
	return nil
}

func waitForStatus(t *testing.T, hs *health.Server, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: admingrpc.EmailHygieneServiceName})
		if err == nil && resp.GetStatus() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("health status never became %v", want)
}

func TestWatchStoreHealth(t *testing.T) {
	hs := health.NewServer()
	p := &flakyPinger{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		admingrpc.WatchStoreHealth(ctx, hs, p, 10*time.Millisecond)
		close(done)
	}()

	waitForStatus(t, hs, healthpb.HealthCheckResponse_SERVING)
	p.fail.Store(true)
	waitForStatus(t, hs, healthpb.HealthCheckResponse_NOT_SERVING)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("watcher did not stop")
	}
}
